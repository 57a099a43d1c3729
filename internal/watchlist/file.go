package watchlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"keel/internal/logger"
	"keel/internal/pkg/symbol"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// watchlistSchema rejects malformed files before they reach the daemon. A
// symbol with no params is valid; params entries are free-form per
// timeframe.
const watchlistSchema = `{
  "type": "object",
  "required": ["symbols"],
  "properties": {
    "symbols": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["symbol"],
        "properties": {
          "symbol": {"type": "string", "minLength": 1},
          "params": {
            "type": "object",
            "additionalProperties": {
              "type": "object",
              "properties": {
                "ma_period": {"type": "integer", "minimum": 2},
                "buy_threshold": {"type": "number", "exclusiveMinimum": 0},
                "sell_threshold": {"type": "number", "exclusiveMinimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

type fileDocument struct {
	Symbols []Entry `json:"symbols"`
}

var compiledSchema = jsonschema.MustCompileString("watchlist.schema.json", watchlistSchema)

// LoadFile reads and validates a watchlist JSON file.
func LoadFile(path string) (*Static, error) {
	entries, err := readEntries(path)
	if err != nil {
		return nil, err
	}
	return &Static{entries: entries}, nil
}

func readEntries(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading watchlist failed: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("watchlist is not valid JSON: %w", err)
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("watchlist schema validation failed: %w", err)
	}
	var doc fileDocument
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	// Canonicalize here so every symbol downstream (signals, positions,
	// order history) carries the exchange spelling.
	for i := range doc.Symbols {
		s := doc.Symbols[i].Symbol
		if !symbol.IsValid(s) {
			return nil, fmt.Errorf("watchlist symbol %q is not a recognized pair", s)
		}
		doc.Symbols[i].Symbol = symbol.Canonical(s)
	}
	return doc.Symbols, nil
}

// Watch reloads the watchlist when the file changes. Bad edits keep the
// previous list and log the rejection. Returns a stop function.
func Watch(path string, list *Static) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				entries, err := readEntries(path)
				if err != nil {
					logger.Warnf("watchlist: reload rejected: %v", err)
					continue
				}
				list.replace(entries)
				logger.Infof("watchlist: reloaded %d symbols from %s", len(entries), path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("watchlist: watcher error: %v", err)
			}
		}
	}()
	return func() { watcher.Close() }, nil
}
