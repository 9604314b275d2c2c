package carrier

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Словарь статусов ExpressLine. Перевозчик отдаёт текстовые коды,
// адаптер переводит их в нормализованное перечисление.
var expressVocabulary = map[string]domain.ShipmentStatus{
	"LABEL_CREATED":    domain.ShipmentStatusPending,
	"PICKED_UP":        domain.ShipmentStatusInTransit,
	"LINEHAUL":         domain.ShipmentStatusInTransit,
	"ON_VEHICLE":       domain.ShipmentStatusOutForDelivery,
	"DELIVERED":        domain.ShipmentStatusDelivered,
	"DELIVERY_PROBLEM": domain.ShipmentStatusException,
}

// Порядок, в котором ExpressLine двигает отгрузку при нормальной доставке.
var expressProgression = []string{"LABEL_CREATED", "PICKED_UP", "LINEHAUL", "ON_VEHICLE", "DELIVERED"}

// ExpressLineAdapter имитирует интеграцию с курьерской службой ExpressLine.
// Реальный HTTP-клиент перевозчика здесь замещён локальной таблицей отгрузок.
type ExpressLineAdapter struct {
	mu        sync.Mutex
	shipments map[string]string // trackingRef -> нативный статус ExpressLine
	offline   bool
}

// NewExpressLineAdapter создаёт адаптер ExpressLine.
func NewExpressLineAdapter() *ExpressLineAdapter {
	return &ExpressLineAdapter{shipments: make(map[string]string)}
}

// Code возвращает код перевозчика.
func (a *ExpressLineAdapter) Code() string { return "expressline" }

// Register регистрирует отгрузку и возвращает трек-номер в формате ExpressLine.
func (a *ExpressLineAdapter) Register(orderID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.offline {
		return "", domain.ErrCarrierUnavailable
	}

	ref := fmt.Sprintf("XP-%s", strings.ToUpper(uuid.New().String()[:8]))
	a.shipments[ref] = expressProgression[0]
	return ref, nil
}

// Track возвращает нормализованный статус отгрузки.
func (a *ExpressLineAdapter) Track(trackingRef string) (domain.ShipmentStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.offline {
		return "", domain.ErrCarrierUnavailable
	}

	native, ok := a.shipments[trackingRef]
	if !ok {
		return "", domain.ErrUnknownTracking
	}
	return expressVocabulary[native], nil
}

// Advance двигает отгрузку на следующий шаг маршрута (имитация движения
// посылки; в реальной интеграции статус менялся бы на стороне перевозчика).
func (a *ExpressLineAdapter) Advance(trackingRef string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	native, ok := a.shipments[trackingRef]
	if !ok {
		return domain.ErrUnknownTracking
	}
	for i, step := range expressProgression {
		if step == native && i < len(expressProgression)-1 {
			a.shipments[trackingRef] = expressProgression[i+1]
			return nil
		}
	}
	return nil
}

// MarkProblem переводит отгрузку в проблемный статус перевозчика.
func (a *ExpressLineAdapter) MarkProblem(trackingRef string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.shipments[trackingRef]; !ok {
		return domain.ErrUnknownTracking
	}
	a.shipments[trackingRef] = "DELIVERY_PROBLEM"
	return nil
}

// SetOffline переводит адаптер в режим недоступности перевозчика.
func (a *ExpressLineAdapter) SetOffline(offline bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offline = offline
}

var _ domain.CarrierAdapter = (*ExpressLineAdapter)(nil)
