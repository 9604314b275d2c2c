package app

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// demoProducts — стартовый каталог демо-окружения.
func demoProducts(now time.Time) []domain.Product {
	return []domain.Product{
		{SKU: "sku-keyboard", Name: "Mechanical Keyboard", Description: "87-key, hot-swappable", PriceMinor: 8900, Stock: 25, CreatedAt: now},
		{SKU: "sku-mouse", Name: "Wireless Mouse", Description: "2.4GHz, silent click", PriceMinor: 2900, Stock: 40, CreatedAt: now},
		{SKU: "sku-monitor", Name: "27\" Monitor", Description: "QHD IPS panel", PriceMinor: 24900, Stock: 10, CreatedAt: now},
		{SKU: "sku-headset", Name: "USB Headset", Description: "Noise-cancelling microphone", PriceMinor: 4500, Stock: 30, CreatedAt: now},
		{SKU: "sku-dock", Name: "USB-C Dock", Description: "Dual display, 100W PD", PriceMinor: 12900, Stock: 15, CreatedAt: now},
	}
}

// demoCustomers — стартовые покупатели демо-окружения.
func demoCustomers(now time.Time) []domain.Customer {
	return []domain.Customer{
		{ID: "cust-alice", Name: "Alice Johnson", Email: "alice@example.com", CreatedAt: now},
		{ID: "cust-bob", Name: "Bob Smith", Email: "bob@example.com", CreatedAt: now},
	}
}

// seedDemoData наполняет каталог, покупателей и складской леджер.
// Ошибки отдельных записей не фатальны: движок стартует с тем, что удалось
// сохранить.
func seedDemoData(deps *Dependencies, logger *log.Entry) {
	now := time.Now().UTC()

	seeded := 0
	for _, product := range demoProducts(now) {
		if err := deps.Products.Save(product); err != nil {
			logger.WithError(err).WithField("sku", product.SKU).Warn("failed to seed product")
			continue
		}
		deps.Ledger.SetStock(product.SKU, product.Stock)
		seeded++
	}

	customers := 0
	for _, customer := range demoCustomers(now) {
		if err := deps.Customers.Save(customer); err != nil {
			logger.WithError(err).WithField("customer", customer.ID).Warn("failed to seed customer")
			continue
		}
		customers++
	}

	logger.WithFields(log.Fields{
		"products":  seeded,
		"customers": customers,
	}).Info("demo data seeded")
}
