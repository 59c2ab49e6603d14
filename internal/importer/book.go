// Package importer loads advisor client books from YAML or spreadsheets and
// writes them to a store.
package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/advisor-cli/internal/model"
	"github.com/sells-group/advisor-cli/internal/store"
)

// Book is a full advisor data set: clients, the product catalog, holdings,
// and contact history.
type Book struct {
	Clients     []model.ClientProfile     `yaml:"clients"`
	Investments []model.InvestmentProduct `yaml:"investments"`
	Holdings    []model.PortfolioHolding  `yaml:"holdings"`
	Activities  []model.Activity          `yaml:"activities"`
}

// Stats counts the records written by Apply.
type Stats struct {
	Clients     int `json:"clients"`
	Investments int `json:"investments"`
	Holdings    int `json:"holdings"`
	Activities  int `json:"activities"`
}

// LoadBook reads a YAML book from disk and normalizes its enum fields.
func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: read book %s", path)
	}

	var book Book
	if err := yaml.Unmarshal(data, &book); err != nil {
		return nil, eris.Wrap(err, "importer: parse book")
	}
	book.normalize()
	return &book, nil
}

// LoadFile picks a loader by file extension. Spreadsheets only carry
// clients; sheet selects the worksheet and defaults to the first.
func LoadFile(path, sheet string) (*Book, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadBook(path)
	case ".xlsx":
		clients, err := ReadClientsXLSX(path, sheet)
		if err != nil {
			return nil, err
		}
		return &Book{Clients: clients}, nil
	default:
		return nil, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

func (b *Book) normalize() {
	for i := range b.Clients {
		c := &b.Clients[i]
		c.RiskTolerance = model.ParseRiskLevel(string(c.RiskTolerance))
		c.LifecycleStage = model.ParseLifecycleStage(string(c.LifecycleStage))
		c.PreferredContact = model.ParseContactChannel(string(c.PreferredContact))
	}
	for i := range b.Investments {
		p := &b.Investments[i]
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		p.RiskLevel = model.ParseRiskLevel(string(p.RiskLevel))
	}
	for i := range b.Holdings {
		h := &b.Holdings[i]
		h.ProductType = strings.ToLower(strings.TrimSpace(h.ProductType))
	}
	for i := range b.Activities {
		a := &b.Activities[i]
		a.Type = model.ActivityType(strings.ToLower(strings.TrimSpace(string(a.Type))))
	}
}

// Validate checks every record and that holdings and activities point at a
// client in the book or already in the store.
func (b *Book) Validate(ctx context.Context, st store.Store) error {
	var errs []string
	known := make(map[string]bool, len(b.Clients))

	for _, c := range b.Clients {
		if err := c.Validate(); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		known[c.ID] = true
	}
	for _, p := range b.Investments {
		if err := p.Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	checkClient := func(kind, id string) {
		if id == "" || known[id] {
			return
		}
		_, err := st.GetClient(ctx, id)
		switch {
		case err == nil:
			known[id] = true
		case eris.Is(err, store.ErrNotFound):
			errs = append(errs, kind+" references unknown client "+id)
		default:
			errs = append(errs, err.Error())
		}
	}

	for _, h := range b.Holdings {
		if err := h.Validate(); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		checkClient("holding", h.ClientID)
	}
	for _, a := range b.Activities {
		if err := a.Validate(); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		checkClient("activity", a.ClientID)
	}

	if len(errs) > 0 {
		return eris.Errorf("importer: invalid book: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Apply validates the whole book, then upserts it. Nothing is written if any
// record is invalid.
func Apply(ctx context.Context, st store.Store, book *Book) (Stats, error) {
	var stats Stats
	if err := book.Validate(ctx, st); err != nil {
		return stats, err
	}

	bulk, isBulk := st.(store.BulkWriter)

	if isBulk && len(book.Clients) > 0 {
		if _, err := bulk.BulkUpsertClients(ctx, book.Clients); err != nil {
			return stats, eris.Wrap(err, "importer: write clients")
		}
		stats.Clients = len(book.Clients)
	} else {
		for _, c := range book.Clients {
			if err := st.UpsertClient(ctx, c); err != nil {
				return stats, eris.Wrap(err, "importer: write client")
			}
			stats.Clients++
		}
	}
	for _, p := range book.Investments {
		if err := st.UpsertInvestment(ctx, p); err != nil {
			return stats, eris.Wrap(err, "importer: write investment")
		}
		stats.Investments++
	}
	for _, h := range book.Holdings {
		if err := st.UpsertHolding(ctx, h); err != nil {
			return stats, eris.Wrap(err, "importer: write holding")
		}
		stats.Holdings++
	}
	if isBulk && len(book.Activities) > 0 {
		if _, err := bulk.BulkUpsertActivities(ctx, book.Activities); err != nil {
			return stats, eris.Wrap(err, "importer: write activities")
		}
		stats.Activities = len(book.Activities)
	} else {
		for _, a := range book.Activities {
			if err := st.RecordActivity(ctx, a); err != nil {
				return stats, eris.Wrap(err, "importer: write activity")
			}
			stats.Activities++
		}
	}

	zap.L().Info("importer: book applied",
		zap.Bool("bulk", isBulk),
		zap.Int("clients", stats.Clients),
		zap.Int("investments", stats.Investments),
		zap.Int("holdings", stats.Holdings),
		zap.Int("activities", stats.Activities),
	)
	return stats, nil
}
