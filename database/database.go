package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/fulldump/slotdb/collection"
	"github.com/fulldump/slotdb/consumer"
	"github.com/fulldump/slotdb/layout"
	"github.com/fulldump/slotdb/memory"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

type Config struct {
	MemoryLimit       int64
	ExportDir         string
	ExportRate        float64
	ExportCompression string
}

type Database struct {
	Config           *Config
	status           string
	Collections      map[string]*collection.Collection
	collectionsMutex *sync.RWMutex
	Budget           *memory.Budget
	pump             *consumer.Pump // guarded by collectionsMutex
	stopPump         func()
	exit             chan struct{}
	stopOnce         sync.Once
	logger           *log.Logger
}

func NewDatabase(config *Config) *Database {
	db := &Database{
		Config:           config,
		status:           StatusOpening,
		Collections:      map[string]*collection.Collection{},
		collectionsMutex: &sync.RWMutex{},
		Budget:           memory.NewBudget(config.MemoryLimit),
		exit:             make(chan struct{}),
		logger:           log.New(os.Stdout, "DATABASE: ", log.LstdFlags),
	}

	return db
}

func (db *Database) GetStatus() string {
	db.collectionsMutex.RLock()
	defer db.collectionsMutex.RUnlock()

	return db.status
}

func (db *Database) setStatus(status string) {
	db.collectionsMutex.Lock()
	db.status = status
	db.collectionsMutex.Unlock()
}

func (db *Database) CreateCollection(name string, l *layout.Layout, capacity int) (*collection.Collection, error) {
	db.collectionsMutex.Lock()
	defer db.collectionsMutex.Unlock()

	if _, exists := db.Collections[name]; exists {
		return nil, fmt.Errorf("collection '%s' already exists", name)
	}

	col, err := collection.New(&collection.Config{
		Name:     name,
		Layout:   l,
		Capacity: capacity,
		Acquirer: db.Budget,
	})
	if err != nil {
		return nil, err
	}

	db.Collections[name] = col

	return col, nil
}

func (db *Database) GetCollection(name string) (*collection.Collection, bool) {
	db.collectionsMutex.RLock()
	defer db.collectionsMutex.RUnlock()

	col, exists := db.Collections[name]
	return col, exists
}

// ListCollections returns collections sorted by name.
func (db *Database) ListCollections() []*collection.Collection {
	db.collectionsMutex.RLock()
	defer db.collectionsMutex.RUnlock()

	result := make([]*collection.Collection, 0, len(db.Collections))
	for _, col := range db.Collections {
		result = append(result, col)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func (db *Database) DropCollection(name string) error {
	db.collectionsMutex.Lock()
	col, exists := db.Collections[name]
	if !exists {
		db.collectionsMutex.Unlock()
		return fmt.Errorf("collection '%s' not found", name)
	}
	delete(db.Collections, name)
	db.collectionsMutex.Unlock()

	return col.Drop()
}

func (db *Database) sources() []consumer.Source {
	cols := db.ListCollections()
	result := make([]consumer.Source, 0, len(cols))
	for _, col := range cols {
		result = append(result, col.Source())
	}
	return result
}

// Load prepares the export pump (when an export dir is configured) and opens
// the database for operations.
func (db *Database) Load() error {

	if db.Config.ExportDir != "" {
		compression, err := consumer.ParseCompression(db.Config.ExportCompression)
		if err != nil {
			db.setStatus(StatusClosing)
			return err
		}

		sink, err := consumer.NewFileSink(db.Config.ExportDir, compression)
		if err != nil {
			db.setStatus(StatusClosing)
			return fmt.Errorf("export dir: %w", err)
		}

		pump := consumer.NewPump(db.sources, sink, db.Config.ExportRate)
		pump.Logger = log.New(os.Stdout, "EXPORT: ", log.LstdFlags)

		db.collectionsMutex.Lock()
		if db.status == StatusClosing {
			db.collectionsMutex.Unlock()
			return fmt.Errorf("load: database is closing")
		}
		db.pump = pump
		db.stopPump = pump.Start()
		db.collectionsMutex.Unlock()

		db.logger.Printf("exporting to %s (%s, %.2f/s)\n", db.Config.ExportDir, compression, db.Config.ExportRate)
	}

	db.setStatus(StatusOperating)

	return nil
}

// Pump returns the export pump, nil when exports are disabled or the
// database is closed.
func (db *Database) Pump() *consumer.Pump {
	db.collectionsMutex.RLock()
	defer db.collectionsMutex.RUnlock()

	return db.pump
}

func (db *Database) Start() error {

	go func() {
		err := db.Load()
		if err != nil {
			db.logger.Println("ERROR: load:", err.Error())
		}
	}()

	<-db.exit

	return nil
}

// Stop flushes pending exports and drops every collection so all memory
// goes back to the budget.
func (db *Database) Stop() error {

	var lastErr error
	db.stopOnce.Do(func() {
		lastErr = db.stop()
	})
	return lastErr
}

func (db *Database) stop() error {

	defer close(db.exit)

	// The pump is detached before any collection is dropped, so no tick can
	// see the collections disappear and forget their exports.
	db.collectionsMutex.Lock()
	db.status = StatusClosing
	pump, stopPump := db.pump, db.stopPump
	db.pump, db.stopPump = nil, nil
	db.collectionsMutex.Unlock()

	var lastErr error

	if pump != nil {
		stopPump()
		_, err := pump.Close(context.Background())
		if err != nil {
			db.logger.Println("ERROR: final export:", err.Error())
			lastErr = err
		}
	}

	for _, col := range db.ListCollections() {
		db.logger.Printf("Closing '%s'...\n", col.Name)
		err := db.DropCollection(col.Name)
		if err != nil {
			db.logger.Printf("ERROR: close(%s): %s\n", col.Name, err.Error())
			lastErr = err
		}
	}

	return lastErr
}
