package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
)

// domainTerms is the gazetteer for the DOMAIN_TERMS category: vocabulary
// characteristic of underground marketplaces and exploit trading.
var domainTerms = []string{
	"bitcoin", "btc", "wallet", "opsec", "market", "vendor",
	"exploit", "0day", "botnet", "hack", "malware", "ransomware",
	"carding", "cvv", "fullz", "counterfeit", "drugs",
}

// gpeTerms is a small gazetteer of geopolitical entities seen in listing
// shipping lines and forum profiles.
var gpeTerms = []string{
	"usa", "united states", "uk", "united kingdom", "germany", "france",
	"netherlands", "russia", "china", "canada", "australia", "spain",
	"italy", "poland", "ukraine", "india", "brazil", "japan",
	"london", "moscow", "berlin", "amsterdam", "new york", "paris",
}

// locTerms is a small gazetteer of non-political locations.
var locTerms = []string{
	"europe", "asia", "africa", "north america", "south america",
	"middle east", "eastern europe", "western europe", "worldwide",
}

// moneyPattern matches money amounts: a currency symbol followed by an
// amount, or an amount followed by a currency code.
var moneyPattern = regexp.MustCompile(`(?i)(?:[$€£]\s?\d[\d,]*(?:\.\d+)?|\b\d[\d,]*(?:\.\d+)?\s?(?:usd|eur|gbp|btc|xmr|monero)\b)`)

// capitalizedRun matches runs of two or three capitalized words, the raw
// material for PERSON and ORG candidates.
var capitalizedRun = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2})\b`)

// productPattern matches a capitalized name followed by a version-like
// number, e.g. "Windows 10".
var productPattern = regexp.MustCompile(`\b([A-Z][A-Za-z]+\s+\d[\d.]*)\b`)

// orgSuffixes mark a capitalized run as an organization.
var orgSuffixes = []string{
	"Inc", "LLC", "Ltd", "Corp", "Corporation", "Group", "Bank",
	"Market", "Team", "Labs", "Agency", "Services",
}

// ExtractEntities extracts surface strings from clean text into the
// fixed category set. Extraction is rule-based and deterministic: the
// same text always yields the same entity set, in sorted order per
// category. Every category key is present in the result.
func ExtractEntities(cleanText string) model.EntitySet {
	es := model.NewEntitySet()
	if strings.TrimSpace(cleanText) == "" {
		return es
	}

	lower := strings.ToLower(cleanText)

	es[model.EntityMoney] = uniqueSorted(moneyPattern.FindAllString(cleanText, -1))
	es[model.EntityDomainTerms] = matchGazetteer(lower, domainTerms)
	es[model.EntityGPE] = matchGazetteer(lower, gpeTerms)
	es[model.EntityLoc] = matchGazetteer(lower, locTerms)
	es[model.EntityProduct] = uniqueSorted(productPattern.FindAllString(cleanText, -1))

	persons, orgs := classifyCapitalizedRuns(cleanText)
	es[model.EntityPerson] = persons
	es[model.EntityOrg] = orgs

	return es
}

// matchGazetteer returns the gazetteer terms present in the lowercased
// text as whole words.
func matchGazetteer(lower string, terms []string) []string {
	found := make([]string, 0)
	for _, term := range terms {
		if containsWord(lower, term) {
			found = append(found, term)
		}
	}
	sort.Strings(found)
	return found
}

// containsWord reports whether term occurs in s on word boundaries.
// A plain substring check would turn "discovery" into a "cvv" hit.
func containsWord(s, term string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// classifyCapitalizedRuns splits capitalized word runs into ORG (run
// ends with an organization suffix) and PERSON (two-word runs elsewhere
// in a sentence). Single capitalized words are ignored: they are mostly
// sentence starts.
func classifyCapitalizedRuns(text string) (persons, orgs []string) {
	persons = []string{}
	orgs = []string{}

	for _, run := range capitalizedRun.FindAllString(text, -1) {
		words := strings.Fields(run)
		last := words[len(words)-1]

		isOrg := false
		for _, suffix := range orgSuffixes {
			if last == suffix {
				isOrg = true
				break
			}
		}

		switch {
		case isOrg:
			orgs = append(orgs, run)
		case len(words) == 2:
			persons = append(persons, run)
		}
	}

	return uniqueSorted(persons), uniqueSorted(orgs)
}

// uniqueSorted deduplicates and sorts surface strings.
func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
