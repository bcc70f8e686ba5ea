package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"congsync-server/internal/domain"
	"congsync-server/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAssetWriter(t *testing.T) (*AssetWriter, string) {
	t.Helper()
	dir := t.TempDir()
	return NewAssetWriter(dir, zap.NewNop()), dir
}

func cacheJob(jobType domain.JobType, payload string) *domain.SyncJob {
	return &domain.SyncJob{
		ID:        "job-" + string(jobType),
		Type:      jobType,
		Direction: domain.DirectionDesktopToMobile,
		Payload:   json.RawMessage(payload),
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}
}

func readCache(t *testing.T, dir string, jobType domain.JobType) map[string]interface{} {
	t.Helper()
	doc := map[string]interface{}{}
	require.NoError(t, repository.ReadFileJSON(filepath.Join(dir, string(jobType)+".json"), &doc))
	return doc
}

func TestAssetWriter_KeyedListReplaceOrAppend(t *testing.T) {
	writer, dir := newTestAssetWriter(t)

	require.NoError(t, writer.Apply(cacheJob(domain.TypeTerritories,
		`{"territories":[{"id":"t1","name":"Zone A"},{"id":"t2","name":"Zone B"}]}`)))
	require.NoError(t, writer.Apply(cacheJob(domain.TypeTerritories,
		`{"territories":[{"id":"t1","name":"Zone A (revised)"},{"id":"t3","name":"Zone C"}]}`)))

	doc := readCache(t, dir, domain.TypeTerritories)
	items := doc["territories"].([]interface{})
	require.Len(t, items, 3)

	names := map[string]string{}
	for _, item := range items {
		obj := item.(map[string]interface{})
		names[obj["id"].(string)] = obj["name"].(string)
	}
	require.Equal(t, "Zone A (revised)", names["t1"])
	require.Equal(t, "Zone B", names["t2"])
	require.Equal(t, "Zone C", names["t3"])
	require.NotEmpty(t, doc["updatedAt"])
}

func TestAssetWriter_WeekKeyedReplaceSameWeek(t *testing.T) {
	writer, dir := newTestAssetWriter(t)

	require.NoError(t, writer.Apply(cacheJob(domain.TypeWeeklyProgramme,
		`{"weekStart":"2026-09-07","items":["song 12"]}`)))
	require.NoError(t, writer.Apply(cacheJob(domain.TypeWeeklyProgramme,
		`{"weekStart":"2026-08-31","items":["song 3"]}`)))
	// Same week again: must replace, not duplicate.
	require.NoError(t, writer.Apply(cacheJob(domain.TypeWeeklyProgramme,
		`{"weekStart":"2026-09-07","items":["song 45"]}`)))

	doc := readCache(t, dir, domain.TypeWeeklyProgramme)
	weeks := doc["weeks"].([]interface{})
	require.Len(t, weeks, 2)

	// Sorted ascending by weekStart.
	first := weeks[0].(map[string]interface{})
	second := weeks[1].(map[string]interface{})
	require.Equal(t, "2026-08-31", first["weekStart"])
	require.Equal(t, "2026-09-07", second["weekStart"])

	items := second["items"].([]interface{})
	require.Equal(t, []interface{}{"song 45"}, items)
}

func TestAssetWriter_RedeliveredJobDoesNotDuplicate(t *testing.T) {
	writer, dir := newTestAssetWriter(t)

	job := cacheJob(domain.TypeTerritories,
		`{"territories":[{"id":"t1","name":"Zone A"}]}`)
	require.NoError(t, writer.Apply(job))
	require.NoError(t, writer.Apply(job))

	doc := readCache(t, dir, domain.TypeTerritories)
	require.Len(t, doc["territories"].([]interface{}), 1)
}

func TestAssetWriter_KeylessItemsAreRejected(t *testing.T) {
	writer, dir := newTestAssetWriter(t)

	require.Error(t, writer.Apply(cacheJob(domain.TypeTerritories,
		`{"territories":[{"name":"no id here"}]}`)))
	require.Error(t, writer.Apply(cacheJob(domain.TypeCommunications,
		`{"communications":[{"id":"","body":"empty id"}]}`)))

	// A rejected payload must not touch the cache file.
	_, err := os.Stat(filepath.Join(dir, "territories.json"))
	require.True(t, os.IsNotExist(err))
}

func TestAssetWriter_SingletonOverwrites(t *testing.T) {
	writer, dir := newTestAssetWriter(t)

	require.NoError(t, writer.Apply(cacheJob(domain.TypePublicWitnessing,
		`{"period":"2026-Q3","slots":[{"site":"station","day":"monday"}]}`)))
	require.NoError(t, writer.Apply(cacheJob(domain.TypePublicWitnessing,
		`{"period":"2026-Q4","slots":[]}`)))

	doc := readCache(t, dir, domain.TypePublicWitnessing)
	require.Equal(t, "2026-Q4", doc["period"])
	require.Empty(t, doc["slots"])
	require.NotEmpty(t, doc["updatedAt"])
}

func TestAssetWriter_TypesWithoutRuleProduceNoFile(t *testing.T) {
	writer, dir := newTestAssetWriter(t)

	require.NoError(t, writer.Apply(cacheJob(domain.TypeAttendance, `{"meetingType":"midweek"}`)))

	_, err := os.Stat(filepath.Join(dir, "attendance.json"))
	require.True(t, os.IsNotExist(err))
}

func TestAssetWriter_BadPayloadIsAnError(t *testing.T) {
	writer, _ := newTestAssetWriter(t)

	require.Error(t, writer.Apply(cacheJob(domain.TypeTerritories, `not-json`)))
	require.Error(t, writer.Apply(cacheJob(domain.TypeTerritories, `{"no":"territories key"}`)))
	require.Error(t, writer.Apply(cacheJob(domain.TypeWeeklyProgramme, `{"items":[]}`)))
}

func TestAssetWriter_ApplyAsyncCompletesAfterReturn(t *testing.T) {
	writer, dir := newTestAssetWriter(t)

	writer.ApplyAsync(cacheJob(domain.TypeTerritories,
		`{"territories":[{"id":"t1","name":"Zone A"}]}`))

	path := filepath.Join(dir, "territories.json")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		return json.Valid(data)
	}, 2*time.Second, 20*time.Millisecond, "cache file should appear asynchronously")
}
