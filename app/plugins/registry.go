// Package plugins maps configured driver names to store implementations and
// opens the enabled publishers.
package plugins

import (
	"github.com/kilianp07/lineplan/core/factory"
	"github.com/kilianp07/lineplan/core/store"
)

// Stores holds the store drivers selectable with store.driver.
var Stores = factory.NewRegistry[store.Store]()

func RegisterStore(name string, f factory.Factory[store.Store]) error {
	return Stores.Register(name, f)
}
