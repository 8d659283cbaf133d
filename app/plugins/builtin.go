package plugins

import (
	"errors"
	"fmt"

	"github.com/kilianp07/lineplan/config"
	"github.com/kilianp07/lineplan/core/factory"
	coremon "github.com/kilianp07/lineplan/core/monitoring"
	"github.com/kilianp07/lineplan/core/notify"
	"github.com/kilianp07/lineplan/core/store"
	"github.com/kilianp07/lineplan/infra/kafka"
	"github.com/kilianp07/lineplan/infra/mqtt"
	"github.com/kilianp07/lineplan/infra/sqlite"
)

func init() {
	Stores.MustRegister("memory", func(map[string]any) (store.Store, error) {
		return store.NewMemoryStore(), nil
	})
	Stores.MustRegister("sqlite", func(conf map[string]any) (store.Store, error) {
		var sc config.StoreConfig
		if err := factory.Decode(conf, &sc); err != nil {
			return nil, err
		}
		s, err := sqlite.Open(sc.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// OpenStore builds the store selected by cfg.Driver.
func OpenStore(cfg config.StoreConfig) (store.Store, error) {
	return Stores.Create(factory.ModuleConfig{
		Type: cfg.Driver,
		Conf: map[string]any{"path": cfg.Path},
	})
}

// OpenPublishers connects every enabled publisher.
func OpenPublishers(cfg config.PublishConfig, mon coremon.Monitor) ([]notify.Publisher, error) {
	var pubs []notify.Publisher
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		p.SetMonitor(mon)
		pubs = append(pubs, p)
	}
	if cfg.Kafka.Enabled {
		pubs = append(pubs, kafka.NewPublisher(cfg.Kafka))
	}
	return pubs, nil
}

// ClosePublishers closes every publisher and joins the errors.
func ClosePublishers(pubs []notify.Publisher) error {
	var errs []error
	for _, p := range pubs {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}
