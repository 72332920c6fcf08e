package sources

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestTicketek_FallbackDetail(t *testing.T) {
	tk := NewTicketek(Deps{
		Logger: zap.NewNop(),
		Now:    func() time.Time { return testNow },
	})

	d := tk.fallbackDetail("https://premier.ticketek.com.au/shows/the-phantom-of-the-opera.aspx")
	if d.Title != "The Phantom Of The Opera" {
		t.Errorf("fallback title = %q", d.Title)
	}
	want := testNow.AddDate(0, 1, 0)
	if !d.Start.Equal(want) {
		t.Errorf("fallback start = %v, want %v", d.Start, want)
	}
	if d.Description != "" || d.PriceMin != nil {
		t.Error("fallback record should carry no invented detail")
	}
}

func TestTicketek_Name(t *testing.T) {
	tk := NewTicketek(Deps{Logger: zap.NewNop(), Now: time.Now})
	if tk.Name() != "ticketek" {
		t.Errorf("Name = %q", tk.Name())
	}
}
