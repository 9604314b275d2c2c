package app

import (
	"reflect"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSplitBrokers(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , , ", nil},
		{"broker1:9092", []string{"broker1:9092"}},
		{" broker1:9092 , broker2:9092", []string{"broker1:9092", "broker2:9092"}},
	}

	for _, tc := range cases {
		got := splitBrokers(tc.in)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitBrokers(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInitKafkaProducer_NoBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	for _, brokers := range []string{"", "  ", ","} {
		producer, err := initKafkaProducer(brokers, logger)
		if err != nil {
			t.Errorf("brokers %q: expected no error, got %v", brokers, err)
		}
		if producer != nil {
			t.Errorf("brokers %q: expected nil producer", brokers)
		}
	}
}

func TestInitKafkaProducer_UnreachableBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	// Несуществующие брокеры: ошибка ожидается, но не фатальна для приложения
	producer, err := initKafkaProducer("invalid-broker:9999,another:9999", logger)
	if err == nil {
		t.Error("expected error for unreachable brokers")
	}
	if producer != nil {
		t.Error("expected nil producer on error")
	}
}

func TestCloseKafka_NilProducer(_ *testing.T) {
	logger := log.WithField("test", "kafka")

	// Не должно паниковать
	closeKafka(nil, logger)
}
