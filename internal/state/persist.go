package state

import (
	"log"

	"apriori-backend/internal/catalog"
	"apriori-backend/internal/models"
	"apriori-backend/internal/storage"
)

// Persister mirrors state changes to a Store. Write failures never fail the
// caller: they are logged and flip the degraded flag until a later write
// succeeds.
type Persister struct {
	store storage.Store
	state *AppState
}

func NewPersister(store storage.Store, st *AppState) *Persister {
	return &Persister{store: store, state: st}
}

// Restore loads the catalog, rules and items saved by a previous process.
// A piece that fails to load stays empty.
func (p *Persister) Restore() {
	entries, err := p.store.LoadCatalog()
	if err != nil {
		log.Printf("[WARN] load catalog: %v", err)
	}
	p.state.SetCatalog(catalog.New(entries))

	rules, err := p.store.LoadRules()
	if err != nil {
		log.Printf("[WARN] load rules: %v", err)
		rules = nil
	}
	items, err := p.store.LoadItems()
	if err != nil {
		log.Printf("[WARN] load items: %v", err)
		items = nil
	}
	p.state.SetResults(rules, items, nil)
	log.Printf("[INFO] restored %d catalog entries, %d rules, %d items", len(entries), len(rules), len(items))
}

// SaveResults persists the rule set and recognised items.
func (p *Persister) SaveResults(rules []models.AssociationRule, items []string) {
	ok := true
	if err := p.store.SaveRules(rules); err != nil {
		log.Printf("[WARN] persist rules: %v", err)
		ok = false
	}
	if err := p.store.SaveItems(items); err != nil {
		log.Printf("[WARN] persist items: %v", err)
		ok = false
	}
	p.state.SetDegraded(!ok)
}

// SaveCatalog persists the catalog entries.
func (p *Persister) SaveCatalog(entries []models.CatalogEntry) {
	if err := p.store.SaveCatalog(entries); err != nil {
		log.Printf("[WARN] persist catalog: %v", err)
		p.state.SetDegraded(true)
		return
	}
	p.state.SetDegraded(false)
}
