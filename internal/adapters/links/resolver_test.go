package links

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const knownMerchants = `
Netflix: https://www.netflix.com/cancelplan
Amazon Prime: https://www.amazon.com/gp/primecentral
Spotify: https://www.spotify.com/us/account/subscription/
ChatGPT Plus: https://chat.openai.com/payments
Hulu: https://secure.hulu.com/account/cancel
`

func loadResolver(t *testing.T) *Resolver {
	t.Helper()
	path := filepath.Join(t.TempDir(), "known_merchants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(knownMerchants), 0644))

	r, err := Load(path, DefaultThreshold, nil)
	require.NoError(t, err)
	require.Equal(t, 5, r.Len())
	return r
}

func TestResolve_ExactMatch(t *testing.T) {
	r := loadResolver(t)

	assert.Equal(t, "https://www.netflix.com/cancelplan", r.Resolve("Netflix"))
}

func TestResolve_FuzzyMatch(t *testing.T) {
	r := loadResolver(t)

	tests := []struct {
		merchant string
		want     string
	}{
		{"NETFLIX SUBSCRIPTION", "https://www.netflix.com/cancelplan"},
		{"Amazon Prime*123", "https://www.amazon.com/gp/primecentral"},
		{"AMZN Prime", "https://www.amazon.com/gp/primecentral"},
		{"SPOTIFY USA", "https://www.spotify.com/us/account/subscription/"},
		{"ChatGPT Plus Subscription", "https://chat.openai.com/payments"},
	}
	for _, tt := range tests {
		t.Run(tt.merchant, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.merchant))
		})
	}
}

func TestResolve_NormalizesMerchant(t *testing.T) {
	r := loadResolver(t)

	for _, merchant := range []string{
		"AplPay NETFLIX INC.",
		"APLPAY NETFLIX LLC",
		"Netflix Corp. in NEW YORK",
		"NETFLIX #123 NY",
	} {
		assert.Equal(t, "https://www.netflix.com/cancelplan", r.Resolve(merchant), merchant)
	}
}

func TestResolve_SearchFallback(t *testing.T) {
	r := loadResolver(t)

	link := r.Resolve("Very Unknown Service")

	assert.Equal(t, "https://www.google.com/search?q=how+to+cancel+Very+Unknown+Service", link)
}

func TestResolve_EmptyInputs(t *testing.T) {
	assert.Equal(t, "", loadResolver(t).Resolve(""))
	assert.Equal(t, "", New(DefaultThreshold, nil).Resolve("Netflix"))
}

func TestAddAndSave(t *testing.T) {
	r := loadResolver(t)

	r.Add("Test Service", "https://test.com/cancel")
	r.Add("Netflix", "https://www.netflix.com/account")
	require.NoError(t, r.Save())

	assert.Equal(t, "https://test.com/cancel", r.Resolve("Test Service"))

	reloaded, err := Load(r.path, DefaultThreshold, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.Len())
	assert.Equal(t, "https://www.netflix.com/account", reloaded.Resolve("Netflix"))
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_merchants.yaml")

	r, err := Load(path, DefaultThreshold, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())

	r.Add("Netflix", "https://www.netflix.com/cancelplan")
	require.NoError(t, r.Save())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0644))

	_, err := Load(path, DefaultThreshold, nil)

	assert.Error(t, err)
}

func TestSave_WithoutFile(t *testing.T) {
	assert.Error(t, New(DefaultThreshold, nil).Save())
}

func TestResolve_Concurrent(t *testing.T) {
	r := loadResolver(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				r.Add("Service", "https://example.com/cancel")
				return
			}
			assert.Equal(t, "https://www.netflix.com/cancelplan", r.Resolve("Netflix"))
		}(i)
	}
	wg.Wait()
}

func TestNew_InvalidThresholdPanics(t *testing.T) {
	assert.Panics(t, func() { New(101, nil) })
}
