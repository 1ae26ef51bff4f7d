package crawler

import (
	"strings"
	"testing"
)

func TestParserParse(t *testing.T) {
	t.Parallel()

	t.Run("extracts title and resolved links", func(t *testing.T) {
		t.Parallel()

		p, err := NewParser("http://example.onion/shop/")
		if err != nil {
			t.Fatal(err)
		}

		page := `<html><head><title> Market Index </title></head><body>
			<a href="/listings">listings</a>
			<a href="item?id=1">item</a>
			<a href="http://other.onion/">other</a>
			<a href="#top">top</a>
			<a href="mailto:admin@example.onion">mail</a>
			<a href="/listings">listings again</a>
		</body></html>`

		result, err := p.Parse(strings.NewReader(page))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}

		if result.Title != "Market Index" {
			t.Errorf("Title = %q, want %q", result.Title, "Market Index")
		}

		want := []string{
			"http://example.onion/listings",
			"http://example.onion/shop/item?id=1",
			"http://other.onion/",
		}
		if len(result.Links) != len(want) {
			t.Fatalf("Links = %v, want %v", result.Links, want)
		}
		for i, link := range want {
			if result.Links[i] != link {
				t.Errorf("Links[%d] = %q, want %q", i, result.Links[i], link)
			}
		}
	})

	t.Run("drops fragments and non-web schemes", func(t *testing.T) {
		t.Parallel()

		p, err := NewParser("http://example.com/")
		if err != nil {
			t.Fatal(err)
		}

		page := `<a href="javascript:void(0)">x</a>
			<a href="tel:+1555">x</a>
			<a href="data:text/plain,hi">x</a>
			<a href="/page#section">page</a>`

		result, err := p.Parse(strings.NewReader(page))
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Links) != 1 || result.Links[0] != "http://example.com/page" {
			t.Errorf("Links = %v, want only the fragment-stripped page link", result.Links)
		}
	})

	t.Run("finds onion addresses in plain text", func(t *testing.T) {
		t.Parallel()

		p, err := NewParser("http://example.com/")
		if err != nil {
			t.Fatal(err)
		}

		page := `<p>mirror at expyuzz4wqqyqhjn.onion and
			expyuzz4wqqyqhjn.onion again</p>
			<!-- backup: duskgytldkxiuqc6.onion -->`

		result, err := p.Parse(strings.NewReader(page))
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"expyuzz4wqqyqhjn.onion", "duskgytldkxiuqc6.onion"}
		if len(result.OnionAddresses) != len(want) {
			t.Fatalf("OnionAddresses = %v, want %v", result.OnionAddresses, want)
		}
		for i, addr := range want {
			if result.OnionAddresses[i] != addr {
				t.Errorf("OnionAddresses[%d] = %q, want %q", i, result.OnionAddresses[i], addr)
			}
		}
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		t.Parallel()

		p, err := NewParser("http://example.com/")
		if err != nil {
			t.Fatal(err)
		}
		result, err := p.Parse(strings.NewReader(`<html><body><a href="/a">unclosed`))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if len(result.Links) != 1 {
			t.Errorf("Links = %v, want one link", result.Links)
		}
	})
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
		same bool
	}{
		{"root path equivalence", "http://example.onion", "http://example.onion/", true},
		{"fragment ignored", "http://example.onion/p#a", "http://example.onion/p#b", true},
		{"host case ignored", "http://EXAMPLE.onion/", "http://example.onion/", true},
		{"query significant", "http://example.onion/?a=1", "http://example.onion/?a=2", false},
		{"path significant", "http://example.onion/a", "http://example.onion/b", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := normalizeURL(tc.a) == normalizeURL(tc.b); got != tc.same {
				t.Errorf("normalizeURL(%q) == normalizeURL(%q) = %v, want %v", tc.a, tc.b, got, tc.same)
			}
		})
	}
}
