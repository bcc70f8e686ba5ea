package service

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"congsync-server/internal/domain"
	"congsync-server/internal/repository"

	"go.uber.org/zap"
)

type mergeKind int

const (
	mergeKeyedList mergeKind = iota
	mergeWeekKeyed
	mergeSingleton
)

type assetRule struct {
	kind    mergeKind
	listKey string
	idKey   string
}

// assetRules maps each desktop_to_mobile type to its cache merge rule.
// Adding a cache type is one entry here; types without an entry produce no
// cache file.
var assetRules = map[domain.JobType]assetRule{
	domain.TypeTerritories:      {kind: mergeKeyedList, listKey: "territories", idKey: "id"},
	domain.TypeCommunications:   {kind: mergeKeyedList, listKey: "communications", idKey: "id"},
	domain.TypeWeeklyProgramme:  {kind: mergeWeekKeyed, listKey: "weeks", idKey: "weekStart"},
	domain.TypePublicWitnessing: {kind: mergeSingleton},
}

// AssetWriter folds desktop_to_mobile payloads into per-type cache files so
// the mobile app can read plain pre-merged snapshots instead of the job log.
// Writes are serialized per type; the files can always be rebuilt by
// replaying jobs.
type AssetWriter struct {
	dir string
	log *zap.Logger

	mu    sync.Mutex
	locks map[domain.JobType]*sync.Mutex
}

func NewAssetWriter(dir string, log *zap.Logger) *AssetWriter {
	return &AssetWriter{
		dir:   dir,
		log:   log,
		locks: make(map[domain.JobType]*sync.Mutex),
	}
}

// ApplyAsync runs Apply detached from the caller. Failures are logged and
// never reach the request that created the job.
func (w *AssetWriter) ApplyAsync(job *domain.SyncJob) {
	go func() {
		if err := w.Apply(job); err != nil {
			w.log.Error("asset write failed",
				zap.String("job_id", job.ID),
				zap.String("type", string(job.Type)),
				zap.Error(err))
		}
	}()
}

// Apply merges one job's payload into its type's cache file.
func (w *AssetWriter) Apply(job *domain.SyncJob) error {
	rule, ok := assetRules[job.Type]
	if !ok {
		return nil
	}

	lock := w.fileLock(job.Type)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(w.dir, string(job.Type)+".json")

	var payload map[string]interface{}
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", job.Type, err)
	}

	switch rule.kind {
	case mergeSingleton:
		payload["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
		return repository.WriteFileJSON(path, payload)

	case mergeKeyedList:
		incoming, err := itemList(payload, rule.listKey)
		if err != nil {
			return fmt.Errorf("bad %s payload: %w", job.Type, err)
		}
		doc := map[string]interface{}{}
		if err := repository.ReadFileJSON(path, &doc); err != nil {
			return err
		}
		existing, _ := doc[rule.listKey].([]interface{})
		merged, err := mergeByKey(existing, incoming, rule.idKey)
		if err != nil {
			return fmt.Errorf("bad %s payload: %w", job.Type, err)
		}
		doc[rule.listKey] = merged
		doc["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
		return repository.WriteFileJSON(path, doc)

	case mergeWeekKeyed:
		weekStart, _ := payload[rule.idKey].(string)
		if weekStart == "" {
			return fmt.Errorf("bad %s payload: missing %s", job.Type, rule.idKey)
		}
		doc := map[string]interface{}{}
		if err := repository.ReadFileJSON(path, &doc); err != nil {
			return err
		}
		weeks, _ := doc[rule.listKey].([]interface{})
		weeks, err := mergeByKey(weeks, []interface{}{payload}, rule.idKey)
		if err != nil {
			return fmt.Errorf("bad %s payload: %w", job.Type, err)
		}
		sort.Slice(weeks, func(a, b int) bool {
			return stringField(weeks[a], rule.idKey) < stringField(weeks[b], rule.idKey)
		})
		doc[rule.listKey] = weeks
		doc["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
		return repository.WriteFileJSON(path, doc)
	}
	return nil
}

func (w *AssetWriter) fileLock(t domain.JobType) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	lock, ok := w.locks[t]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[t] = lock
	}
	return lock
}

func itemList(payload map[string]interface{}, listKey string) ([]interface{}, error) {
	raw, ok := payload[listKey]
	if !ok {
		return nil, fmt.Errorf("missing %q list", listKey)
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%q is not a list", listKey)
	}
	return items, nil
}

// mergeByKey replaces-or-appends each incoming item into existing, matching
// on the named key. Items without the key are rejected: appending them would
// duplicate the cache entry every time the same job is replayed.
func mergeByKey(existing, incoming []interface{}, idKey string) ([]interface{}, error) {
	merged := append([]interface{}{}, existing...)
	for _, item := range incoming {
		key := stringField(item, idKey)
		if key == "" {
			return nil, fmt.Errorf("item missing %q", idKey)
		}
		replaced := false
		for i := range merged {
			if stringField(merged[i], idKey) == key {
				merged[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, item)
		}
	}
	return merged, nil
}

func stringField(item interface{}, key string) string {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return ""
	}
	value, _ := obj[key].(string)
	return value
}
