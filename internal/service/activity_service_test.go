package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/models"
)

func TestActivityServiceCreateThenListContainsActivityOnce(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.seedRoles(t)
	env.seedUser(t, 101, "Paul Fajar", "Paul_mhs")
	ctx := context.Background()

	payload := dto.ActivityRequest{ID: "K001", Title: "Seminar AI", Date: "10-05-2025", Location: "Aula FT", Category: "Seminar", ResponsibleUserID: ptrUint(101)}
	created, err := env.activities.Create(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, "10-05-2025", created.Date)
	require.Equal(t, "Paul Fajar", *created.ResponsibleName)
	require.Equal(t, "Mahasiswa", *created.ResponsibleRole)

	list, err := env.activities.List(ctx, "")
	require.NoError(t, err)

	matches := 0
	for _, item := range list.Items {
		if item.ID == "K001" {
			matches++
			require.Equal(t, "Seminar AI", item.Title)
			require.Equal(t, "10-05-2025", item.Date)
			require.Equal(t, "Aula FT", item.Location)
			require.Equal(t, "Seminar", item.Category)
			require.Equal(t, uint(101), *item.ResponsibleUserID)
		}
	}
	require.Equal(t, 1, matches)

	entries := env.changeLog(t, "K001")
	require.Len(t, entries, 1)
	require.Equal(t, models.ChangeActionInsert, entries[0].Action)
	require.Nil(t, entries[0].OldDetail)
	require.Equal(t, "ID: K001, Title: Seminar AI, Date: 10-05-2025, Location: Aula FT, Category: Seminar, ResponsibleID: 101", *entries[0].NewDetail)
}

func TestActivityServiceRejectsDuplicateID(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)

	_, err = env.activities.Create(ctx, activityRequest("K001", "Workshop", "11-05-2025"))
	require.ErrorIs(t, err, ErrDuplicateActivityID)

	list, err := env.activities.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, "Seminar AI", list.Items[0].Title)
	require.Len(t, env.changeLog(t, "K001"), 1)
}

func TestActivityServiceUpdateLogsOnlyRealChanges(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	payload := activityRequest("K001", "Seminar AI", "10-05-2025")
	_, err := env.activities.Create(ctx, payload)
	require.NoError(t, err)

	_, err = env.activities.Update(ctx, "K001", payload)
	require.NoError(t, err)
	require.Len(t, env.changeLog(t, "K001"), 1, "no-op update must not be logged")

	payload.Location = "Gedung Rektorat"
	updated, err := env.activities.Update(ctx, "K001", payload)
	require.NoError(t, err)
	require.Equal(t, "Gedung Rektorat", updated.Location)

	entries := env.changeLog(t, "K001")
	require.Len(t, entries, 2)
	update := entries[0]
	require.Equal(t, models.ChangeActionUpdate, update.Action)
	require.Equal(t, "ID: K001, Title: Seminar AI, Date: 10-05-2025, Location: Aula FT, Category: Seminar, ResponsibleID: NULL", *update.OldDetail)
	require.Equal(t, "ID: K001, Title: Seminar AI, Date: 10-05-2025, Location: Gedung Rektorat, Category: Seminar, ResponsibleID: NULL", *update.NewDetail)
	require.Contains(t, update.Changes, "location")
	require.NotContains(t, update.Changes, "title")
}

func TestActivityServiceUpdateUsesPathID(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)

	payload := activityRequest("K999", "Seminar AI Lanjutan", "10-05-2025")
	updated, err := env.activities.Update(ctx, "K001", payload)
	require.NoError(t, err)
	require.Equal(t, "K001", updated.ID)
	require.Equal(t, "Seminar AI Lanjutan", updated.Title)

	_, err = env.activities.Get(ctx, "K999")
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestActivityServiceDeleteKeepsHistory(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)

	require.NoError(t, env.activities.Delete(ctx, "K001"))

	list, err := env.activities.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, list.Items)

	entries := env.changeLog(t, "K001")
	require.Len(t, entries, 2)
	require.Equal(t, models.ChangeActionDelete, entries[0].Action)
	require.Nil(t, entries[0].NewDetail)
	require.Equal(t, "ID: K001, Title: Seminar AI, Date: 10-05-2025, Location: Aula FT, Category: Seminar, ResponsibleID: NULL", *entries[0].OldDetail)
	require.Equal(t, models.ChangeActionInsert, entries[1].Action)
}

func TestActivityServiceUnknownIDIsNotFound(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.activities.Update(ctx, "K404", activityRequest("K404", "Ghost", "01-01-2025"))
	require.ErrorIs(t, err, ErrActivityNotFound)

	err = env.activities.Delete(ctx, "K404")
	require.ErrorIs(t, err, ErrActivityNotFound)

	_, err = env.activities.Get(ctx, "K404")
	require.ErrorIs(t, err, ErrActivityNotFound)

	require.Empty(t, env.changeLog(t, "K404"))
}

func TestActivityServiceRollsBackWhenLogWriteFails(t *testing.T) {
	env := newTestEnv(t, envOptions{changes: failingChangeLogger{}})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.ErrorIs(t, err, errLogWrite)

	exists, err := env.activityRepo.Exists(ctx, "K001")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestActivityServiceSearch(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)
	workshop := activityRequest("K002", "Workshop", "15-05-2025")
	workshop.Category = "Praktikum"
	_, err = env.activities.Create(ctx, workshop)
	require.NoError(t, err)

	list, err := env.activities.List(ctx, "Seminar")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, "K001", list.Items[0].ID)
	require.Equal(t, "Seminar", list.Items[0].Category)
}

func TestActivityServiceSearchMatchesLiteralText(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)
	_, err = env.activities.Create(ctx, activityRequest("K003", "Émile Talk", "11-05-2025"))
	require.NoError(t, err)
	_, err = env.activities.Create(ctx, activityRequest("K004", "Diskon 50% Bazaar", "12-05-2025"))
	require.NoError(t, err)

	tests := []struct {
		term string
		want []string
	}{
		{term: "%", want: []string{"K004"}},
		{term: "_", want: []string{}},
		{term: "50%", want: []string{"K004"}},
		{term: "émile", want: []string{"K003"}},
		{term: "ÉMILE", want: []string{"K003"}},
	}

	for _, tc := range tests {
		t.Run(tc.term, func(t *testing.T) {
			list, err := env.activities.List(ctx, tc.term)
			require.NoError(t, err)

			ids := make([]string, 0, len(list.Items))
			for _, item := range list.Items {
				ids = append(ids, item.ID)
			}
			require.Equal(t, tc.want, ids)
		})
	}
}

func TestActivityServiceListsNewestDateFirst(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)
	_, err = env.activities.Create(ctx, activityRequest("K003", "Rapat Dosen Bulanan", "20-05-2025"))
	require.NoError(t, err)

	list, err := env.activities.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	require.Equal(t, "20-05-2025", list.Items[0].Date)
	require.Equal(t, "10-05-2025", list.Items[1].Date)
}

func TestActivityServiceValidation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	tests := []struct {
		name    string
		payload dto.ActivityRequest
		field   string
	}{
		{name: "missing id", payload: activityRequest("", "Seminar AI", "10-05-2025"), field: "id"},
		{name: "id too long", payload: activityRequest("K0123456789", "Seminar AI", "10-05-2025"), field: "id"},
		{name: "missing title", payload: activityRequest("K001", "   ", "10-05-2025"), field: "title"},
		{name: "iso date", payload: activityRequest("K001", "Seminar AI", "2025-05-10"), field: "date"},
		{name: "impossible date", payload: activityRequest("K001", "Seminar AI", "31-02-2025"), field: "date"},
		{name: "year one", payload: activityRequest("K001", "Seminar AI", "01-01-0001"), field: "date"},
		{name: "unknown responsible", payload: func() dto.ActivityRequest {
			p := activityRequest("K001", "Seminar AI", "10-05-2025")
			p.ResponsibleUserID = ptrUint(999)
			return p
		}(), field: "responsible_user_id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.activities.Create(ctx, tc.payload)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tc.field, validationErr.Field)
		})
	}

	require.Empty(t, env.changeLog(t, ""))
}

func TestActivityServiceRejectsMarkup(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	tests := []struct {
		name    string
		payload dto.ActivityRequest
		field   string
	}{
		{name: "angle bracket title", payload: activityRequest("K001", "Seminar <AI>", "10-05-2025"), field: "title"},
		{name: "unclosed tag title", payload: activityRequest("K001", "Rapat a<b", "10-05-2025"), field: "title"},
		{name: "bold title", payload: activityRequest("K001", "<b>R&D</b> Day", "10-05-2025"), field: "title"},
		{name: "script location", payload: func() dto.ActivityRequest {
			p := activityRequest("K001", "Seminar AI", "10-05-2025")
			p.Location = "Aula<script>alert(1)</script>"
			return p
		}(), field: "location"},
		{name: "tag category", payload: func() dto.ActivityRequest {
			p := activityRequest("K001", "Seminar AI", "10-05-2025")
			p.Category = "<i>Seminar</i>"
			return p
		}(), field: "category"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.activities.Create(ctx, tc.payload)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tc.field, validationErr.Field)
		})
	}

	require.Empty(t, env.changeLog(t, ""))
}

func TestActivityServiceKeepsLiteralCharacters(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	created, err := env.activities.Create(ctx, activityRequest("K001", "R&D Day", "10-05-2025"))
	require.NoError(t, err)
	require.Equal(t, "R&D Day", created.Title)

	created, err = env.activities.Create(ctx, activityRequest("K002", "  5 > 3 Kuis  ", "11-05-2025"))
	require.NoError(t, err)
	require.Equal(t, "5 > 3 Kuis", created.Title)
}

func TestActivityServiceChangeLogFilters(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)
	_, err = env.activities.Create(ctx, activityRequest("K002", "Workshop", "11-05-2025"))
	require.NoError(t, err)
	require.NoError(t, env.activities.Delete(ctx, "K001"))

	all, err := env.activities.ChangeLog(ctx, dto.ChangeLogListRequest{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	require.Equal(t, models.ChangeActionDelete, all.Items[0].Action)
	require.Equal(t, int64(3), all.Pagination.TotalItems)

	inserts, err := env.activities.ChangeLog(ctx, dto.ChangeLogListRequest{Action: "insert"})
	require.NoError(t, err)
	require.Len(t, inserts.Items, 2)

	paged, err := env.activities.ChangeLog(ctx, dto.ChangeLogListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, paged.Items, 2)
	require.Equal(t, 2, paged.Pagination.TotalPages)

	_, err = env.activities.ChangeLog(ctx, dto.ChangeLogListRequest{Action: "TRUNCATE"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "action", validationErr.Field)
}

func TestActivityServiceListCacheInvalidatedOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := newTestEnv(t, envOptions{cache: client})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)

	first, err := env.activities.List(ctx, "")
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := env.activities.List(ctx, "")
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Len(t, second.Items, 1)

	_, err = env.activities.Create(ctx, activityRequest("K002", "Workshop", "11-05-2025"))
	require.NoError(t, err)

	third, err := env.activities.List(ctx, "")
	require.NoError(t, err)
	require.False(t, third.CacheHit)
	require.Len(t, third.Items, 2)

	env.seedRoles(t)
	_, err = env.users.Register(ctx, dto.RegisterRequest{Name: "Alice", Username: "alice", Password: "secret1", RoleID: 1})
	require.NoError(t, err)

	fourth, err := env.activities.List(ctx, "")
	require.NoError(t, err)
	require.False(t, fourth.CacheHit, "user writes invalidate cached listings")
}

func TestActivityServicePublishesCommittedEntries(t *testing.T) {
	feed := NewChangeFeed(nil, "", testLogger())
	events, cancel := feed.Subscribe()
	defer cancel()

	env := newTestEnv(t, envOptions{feed: feed})
	ctx := context.Background()

	_, err := env.activities.Create(ctx, activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)

	select {
	case entry := <-events:
		require.Equal(t, "K001", entry.ActivityID)
		require.Equal(t, models.ChangeActionInsert, entry.Action)
	case <-time.After(time.Second):
		t.Fatal("expected change feed event")
	}

	_, err = env.activities.Update(ctx, "K001", activityRequest("K001", "Seminar AI", "10-05-2025"))
	require.NoError(t, err)

	select {
	case entry := <-events:
		t.Fatalf("no-op update must not publish, got %s", entry.Action)
	default:
	}
}
