package carrier

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Почтовые коды статусов и их нормализация. У почты словарь короче,
// чем у курьерской службы, и коды числовые.
var postalVocabulary = map[int]domain.ShipmentStatus{
	10: domain.ShipmentStatusPending,        // принято в сортировочный центр
	20: domain.ShipmentStatusInTransit,      // в пути
	30: domain.ShipmentStatusOutForDelivery, // передано почтальону
	40: domain.ShipmentStatusDelivered,      // вручено
	99: domain.ShipmentStatusException,      // возврат/утеря
}

var postalProgression = []int{10, 20, 30, 40}

// PostalAdapter имитирует национальную почтовую службу.
type PostalAdapter struct {
	mu        sync.Mutex
	shipments map[string]int // trackingRef -> нативный почтовый код
	offline   bool
}

// NewPostalAdapter создаёт адаптер почтовой службы.
func NewPostalAdapter() *PostalAdapter {
	return &PostalAdapter{shipments: make(map[string]int)}
}

// Code возвращает код перевозчика.
func (a *PostalAdapter) Code() string { return "postal" }

// Register регистрирует отгрузку и возвращает почтовый трек-номер.
func (a *PostalAdapter) Register(orderID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.offline {
		return "", domain.ErrCarrierUnavailable
	}

	ref := fmt.Sprintf("PST%s", strings.ToUpper(uuid.New().String()[:10]))
	a.shipments[ref] = postalProgression[0]
	return ref, nil
}

// Track возвращает нормализованный статус отгрузки.
func (a *PostalAdapter) Track(trackingRef string) (domain.ShipmentStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.offline {
		return "", domain.ErrCarrierUnavailable
	}

	code, ok := a.shipments[trackingRef]
	if !ok {
		return "", domain.ErrUnknownTracking
	}
	return postalVocabulary[code], nil
}

// Advance двигает отгрузку на следующий почтовый статус.
func (a *PostalAdapter) Advance(trackingRef string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	code, ok := a.shipments[trackingRef]
	if !ok {
		return domain.ErrUnknownTracking
	}
	for i, step := range postalProgression {
		if step == code && i < len(postalProgression)-1 {
			a.shipments[trackingRef] = postalProgression[i+1]
			return nil
		}
	}
	return nil
}

// MarkException помечает отправление как проблемное (код 99).
func (a *PostalAdapter) MarkException(trackingRef string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.shipments[trackingRef]; !ok {
		return domain.ErrUnknownTracking
	}
	a.shipments[trackingRef] = 99
	return nil
}

// SetOffline переводит адаптер в режим недоступности перевозчика.
func (a *PostalAdapter) SetOffline(offline bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offline = offline
}

var _ domain.CarrierAdapter = (*PostalAdapter)(nil)
