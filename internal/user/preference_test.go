package user

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	byID    map[string]Preference
	getErr  error
	created int
}

func (f *fakeStore) GetByTelegramID(_ context.Context, telegramID string) (Preference, error) {
	if f.getErr != nil {
		return Preference{}, f.getErr
	}
	p, ok := f.byID[telegramID]
	if !ok {
		return Preference{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) Create(_ context.Context, p Preference) (Preference, error) {
	f.created++
	p.ID = "generated"
	f.byID[p.TelegramID] = p
	return p, nil
}

func (f *fakeStore) Update(_ context.Context, p Preference) error {
	f.byID[p.TelegramID] = p
	return nil
}

func TestGetOrCreate(t *testing.T) {
	s := &fakeStore{byID: map[string]Preference{}}
	ctx := context.Background()

	p, err := GetOrCreate(ctx, s, "42", "ali")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lang != LangUzbek || p.Region != DefaultRegion || p.Username != "ali" || p.ID == "" {
		t.Fatalf("unexpected defaults %+v", p)
	}

	if _, err := GetOrCreate(ctx, s, "42", "ali"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.created != 1 {
		t.Fatalf("expected a single create, got %d", s.created)
	}
}

func TestGetOrCreatePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	s := &fakeStore{byID: map[string]Preference{}, getErr: boom}

	if _, err := GetOrCreate(context.Background(), s, "42", ""); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if s.created != 0 {
		t.Fatal("must not create on lookup failure")
	}
}

func TestLangToggle(t *testing.T) {
	if LangUzbek.Toggle() != LangArabic || LangArabic.Toggle() != LangUzbek {
		t.Fatal("toggle should alternate between uz and ar")
	}
	if Lang("").Toggle() != LangArabic {
		t.Fatal("unknown language toggles to Arabic")
	}
}
