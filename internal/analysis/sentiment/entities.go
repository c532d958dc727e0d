package sentiment

import (
	"regexp"
	"strings"

	"github.com/slowdive42/news2alpha/pkg/models"
)

// Entity labels.
const (
	LabelCrypto  = "CRYPTO"
	LabelOrg     = "ORG"
	LabelPerson  = "PERSON"
	LabelGPE     = "GPE"
	LabelMoney   = "MONEY"
	LabelPercent = "PERCENT"
)

type gazetteerEntry struct {
	name  string
	label string
}

// gazetteer maps lowercase token sequences to canonical entities.
var gazetteer = map[string]gazetteerEntry{
	"bitcoin": {"Bitcoin", LabelCrypto}, "btc": {"Bitcoin", LabelCrypto},
	"ethereum": {"Ethereum", LabelCrypto}, "ether": {"Ethereum", LabelCrypto},
	"eth": {"Ethereum", LabelCrypto}, "solana": {"Solana", LabelCrypto},
	"ripple": {"XRP", LabelCrypto}, "xrp": {"XRP", LabelCrypto},
	"cardano": {"Cardano", LabelCrypto}, "dogecoin": {"Dogecoin", LabelCrypto},
	"doge": {"Dogecoin", LabelCrypto}, "litecoin": {"Litecoin", LabelCrypto},
	"ltc": {"Litecoin", LabelCrypto}, "tether": {"Tether", LabelCrypto},
	"usdt": {"Tether", LabelCrypto}, "usdc": {"USD Coin", LabelCrypto},
	"bnb": {"BNB", LabelCrypto}, "polkadot": {"Polkadot", LabelCrypto},
	"chainlink": {"Chainlink", LabelCrypto}, "avalanche": {"Avalanche", LabelCrypto},
	"polygon": {"Polygon", LabelCrypto}, "toncoin": {"Toncoin", LabelCrypto},
	"shiba inu": {"Shiba Inu", LabelCrypto}, "stablecoin": {"Stablecoin", LabelCrypto},

	"binance": {"Binance", LabelOrg}, "coinbase": {"Coinbase", LabelOrg},
	"kraken": {"Kraken", LabelOrg}, "ftx": {"FTX", LabelOrg},
	"bitfinex": {"Bitfinex", LabelOrg}, "okx": {"OKX", LabelOrg},
	"bybit": {"Bybit", LabelOrg}, "gemini": {"Gemini", LabelOrg},
	"blackrock": {"BlackRock", LabelOrg}, "fidelity": {"Fidelity", LabelOrg},
	"grayscale": {"Grayscale", LabelOrg}, "microstrategy": {"MicroStrategy", LabelOrg},
	"tesla": {"Tesla", LabelOrg}, "paypal": {"PayPal", LabelOrg},
	"visa": {"Visa", LabelOrg}, "mastercard": {"Mastercard", LabelOrg},
	"robinhood": {"Robinhood", LabelOrg}, "jpmorgan": {"JPMorgan", LabelOrg},
	"goldman sachs": {"Goldman Sachs", LabelOrg}, "sec": {"SEC", LabelOrg},
	"securities and exchange commission": {"SEC", LabelOrg},
	"cftc": {"CFTC", LabelOrg}, "federal reserve": {"Federal Reserve", LabelOrg},
	"fed": {"Federal Reserve", LabelOrg}, "imf": {"IMF", LabelOrg},
	"nasdaq": {"Nasdaq", LabelOrg}, "cme": {"CME", LabelOrg},
	"tether limited": {"Tether", LabelOrg}, "circle": {"Circle", LabelOrg},

	"elon musk": {"Elon Musk", LabelPerson}, "musk": {"Elon Musk", LabelPerson},
	"michael saylor": {"Michael Saylor", LabelPerson}, "saylor": {"Michael Saylor", LabelPerson},
	"gary gensler": {"Gary Gensler", LabelPerson}, "gensler": {"Gary Gensler", LabelPerson},
	"jerome powell": {"Jerome Powell", LabelPerson}, "powell": {"Jerome Powell", LabelPerson},
	"vitalik buterin": {"Vitalik Buterin", LabelPerson}, "buterin": {"Vitalik Buterin", LabelPerson},
	"satoshi nakamoto": {"Satoshi Nakamoto", LabelPerson},
	"changpeng zhao": {"Changpeng Zhao", LabelPerson},
	"sam bankman fried": {"Sam Bankman-Fried", LabelPerson},
	"cathie wood": {"Cathie Wood", LabelPerson}, "larry fink": {"Larry Fink", LabelPerson},
	"janet yellen": {"Janet Yellen", LabelPerson}, "yellen": {"Janet Yellen", LabelPerson},
	"donald trump": {"Donald Trump", LabelPerson}, "trump": {"Donald Trump", LabelPerson},

	"united states": {"United States", LabelGPE}, "usa": {"United States", LabelGPE},
	"china": {"China", LabelGPE}, "japan": {"Japan", LabelGPE},
	"el salvador": {"El Salvador", LabelGPE}, "hong kong": {"Hong Kong", LabelGPE},
	"south korea": {"South Korea", LabelGPE}, "india": {"India", LabelGPE},
	"russia": {"Russia", LabelGPE}, "united kingdom": {"United Kingdom", LabelGPE},
	"uk": {"United Kingdom", LabelGPE}, "european union": {"European Union", LabelGPE},
	"eu": {"European Union", LabelGPE}, "new york": {"New York", LabelGPE},
	"singapore": {"Singapore", LabelGPE}, "dubai": {"Dubai", LabelGPE},
	"germany": {"Germany", LabelGPE}, "canada": {"Canada", LabelGPE},
	"switzerland": {"Switzerland", LabelGPE}, "brazil": {"Brazil", LabelGPE},
	"argentina": {"Argentina", LabelGPE}, "australia": {"Australia", LabelGPE},
}

const maxEntityTokens = 4

var (
	moneyPattern   = regexp.MustCompile(`(?i)(?:\$|usd\s?)\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:k|m|bn|b|million|billion|trillion)\b)?`)
	percentPattern = regexp.MustCompile(`\d+(?:\.\d+)?\s?%`)
)

// EntityExtractor finds known named entities in text.
type EntityExtractor struct {
	entries map[string]gazetteerEntry
}

// NewEntityExtractor returns an extractor backed by the built-in gazetteer.
func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{entries: gazetteer}
}

// Extract returns the entities mentioned in text in order of first
// appearance, without duplicates. Gazetteer phrases are matched
// longest-first on word tokens; money amounts and percentages are matched
// on the raw text, so they only appear when digits survive upstream
// cleaning.
func (e *EntityExtractor) Extract(text string) []models.Entity {
	var out []models.Entity
	seen := make(map[models.Entity]bool)
	add := func(ent models.Entity) {
		if !seen[ent] {
			seen[ent] = true
			out = append(out, ent)
		}
	}

	tokens := Tokenize(text)
	for i := 0; i < len(tokens); {
		matched := false
		for n := maxEntityTokens; n >= 1; n-- {
			if i+n > len(tokens) {
				continue
			}
			if g, ok := e.entries[strings.Join(tokens[i:i+n], " ")]; ok {
				add(models.Entity{Text: g.name, Label: g.label})
				i += n
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}

	for _, m := range moneyPattern.FindAllString(text, -1) {
		add(models.Entity{Text: strings.TrimSpace(m), Label: LabelMoney})
	}
	for _, m := range percentPattern.FindAllString(text, -1) {
		add(models.Entity{Text: strings.ReplaceAll(m, " ", ""), Label: LabelPercent})
	}
	return out
}
