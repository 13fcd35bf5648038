package requestlog

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockd-contract/pkg/contract"
)

func paths(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestNewEntry_TruncatesBody(t *testing.T) {
	raw := []byte(strings.Repeat("x", MaxBodySize+10))
	e := NewEntry(&contract.Request{Method: "POST", Path: "/widgets"}, raw)

	assert.Len(t, e.Body, MaxBodySize)
	assert.Equal(t, MaxBodySize+10, e.BodySize)
	assert.False(t, e.Timestamp.IsZero())
	assert.False(t, e.Matched())
}

func TestMemoryStore_NewestFirst(t *testing.T) {
	s := NewMemoryStore(10)
	for _, p := range []string{"/a", "/b", "/c"} {
		s.Log(&Entry{Method: "GET", Path: p})
	}

	assert.Equal(t, 3, s.Count())
	assert.Equal(t, []string{"/c", "/b", "/a"}, paths(s.List(nil)))

	first := s.List(nil)[2]
	require.NotEmpty(t, first.ID)
	assert.Same(t, first, s.Get(first.ID))
	assert.Nil(t, s.Get("missing"))
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	s := NewMemoryStore(2)
	s.Log(&Entry{Path: "/1"})
	s.Log(&Entry{Path: "/2"})
	s.Log(&Entry{Path: "/3"})

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []string{"/3", "/2"}, paths(s.List(nil)))
}

func TestMemoryStore_Filter(t *testing.T) {
	s := NewMemoryStore(0)
	s.Log(&Entry{Method: "GET", Path: "/widgets/1", Operation: "getWidget", Source: "fixture", Status: 200})
	s.Log(&Entry{Method: "POST", Path: "/widgets", Operation: "createWidget", Source: "example", Status: 201})
	s.Log(&Entry{Method: "GET", Path: "/gadgets", Source: "error", Status: 404})
	s.Log(&Entry{Method: "GET", Path: "/widgets/2", Operation: "getWidget", Source: "example", Status: 200})

	tests := []struct {
		name   string
		filter *Filter
		want   []string
	}{
		{"method", &Filter{Method: "get"}, []string{"/widgets/2", "/gadgets", "/widgets/1"}},
		{"path prefix", &Filter{Path: "/widgets"}, []string{"/widgets/2", "/widgets", "/widgets/1"}},
		{"operation", &Filter{Operation: "getWidget"}, []string{"/widgets/2", "/widgets/1"}},
		{"source", &Filter{Source: "example"}, []string{"/widgets/2", "/widgets"}},
		{"status", &Filter{Status: 404}, []string{"/gadgets"}},
		{"unmatched", &Filter{Unmatched: true}, []string{"/gadgets"}},
		{"limit", &Filter{Limit: 2}, []string{"/widgets/2", "/gadgets"}},
		{"offset", &Filter{Offset: 1, Limit: 2}, []string{"/gadgets", "/widgets"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paths(s.List(tt.filter)))
		})
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore(2)
	s.Log(&Entry{Path: "/1"})
	s.Log(&Entry{Path: "/2"})
	s.Clear()

	assert.Zero(t, s.Count())
	assert.Empty(t, s.List(nil))

	s.Log(&Entry{Path: "/3"})
	assert.Equal(t, []string{"/3"}, paths(s.List(nil)))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Log(&Entry{Path: "/x"})
				_ = s.List(&Filter{Limit: 5})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Count())
}
