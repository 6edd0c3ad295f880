package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/radup/fintable/internal/api"
	"github.com/radup/fintable/internal/service"
	"github.com/radup/fintable/internal/session"
	"github.com/radup/fintable/internal/storage"
	"github.com/radup/fintable/internal/suggest"
	"github.com/spf13/viper"
)

// initStore builds the configured transaction store: the remote client when
// a store URL is set, the local database otherwise. The returned cleanup
// must run before exit.
func initStore() (service.TransactionStore, func(), error) {
	if url := viper.GetString("store.url"); url != "" {
		client, err := api.NewClient(url, viper.GetString("store.token"))
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}

	store, err := storage.NewSQLiteStore(dbPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local store: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// initLocalStore opens the local database regardless of configuration. Used
// by the seed command.
func initLocalStore() (*storage.SQLiteStore, error) {
	return storage.NewSQLiteStore(dbPath())
}

func dbPath() string {
	if path := viper.GetString("store.db_path"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "fintable.db"
	}
	return filepath.Join(home, ".local", "share", "fintable", "fintable.db")
}

// initSession builds a table session over the configured store.
func initSession(store service.TransactionStore) *session.Session {
	return session.New(session.Config{
		Store:    store,
		PageSize: viper.GetInt("table.page_size"),
	})
}

// initSuggester builds the suggestion client when one is configured. A nil
// return disables the suggestion path.
func initSuggester() service.Suggester {
	url := viper.GetString("suggest.url")
	if url == "" {
		return nil
	}
	if url == "mock" {
		return &suggest.MockSuggester{}
	}
	client, err := suggest.NewClient(suggest.Config{
		BaseURL:           url,
		Token:             viper.GetString("suggest.token"),
		RequestsPerMinute: viper.GetInt("suggest.requests_per_minute"),
		CacheTTL:          viper.GetDuration("suggest.cache_ttl"),
	})
	if err != nil {
		return nil
	}
	return client
}
