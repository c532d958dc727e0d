package sentiment

// Valence lexicon on a -4..+4 scale. General-purpose entries follow common
// polarity norms; the market and crypto entries are tuned for headlines.
var lexicon = map[string]float64{
	// general
	"good": 1.9, "great": 3.1, "excellent": 2.7, "amazing": 2.8, "awesome": 3.1,
	"best": 3.2, "better": 1.9, "nice": 1.8, "positive": 2.6, "happy": 2.7,
	"love": 3.2, "like": 1.5, "win": 2.8, "wins": 2.7, "winning": 2.4,
	"success": 2.7, "successful": 2.8, "hope": 1.9, "hopeful": 2.0,
	"confident": 2.2, "confidence": 2.3, "optimism": 2.5, "optimistic": 1.8,
	"benefit": 2.0, "benefits": 1.6, "support": 1.7, "supports": 1.5,
	"strong": 2.3, "stronger": 1.8, "strength": 2.2, "safe": 1.9, "secure": 1.4,
	"opportunity": 1.8, "innovative": 1.9, "innovation": 1.6, "progress": 1.8,
	"improve": 1.9, "improved": 2.1, "improvement": 2.0, "boost": 1.7,
	"boosts": 1.3, "boosted": 1.5, "welcome": 2.0, "approve": 1.7,
	"approved": 1.8, "approval": 1.9, "celebrate": 2.7, "thrilled": 2.1,
	"bad": -2.5, "worse": -2.1, "worst": -3.1, "terrible": -2.1, "awful": -2.0,
	"horrible": -2.5, "negative": -2.7, "sad": -2.1, "hate": -2.7, "fail": -2.5,
	"fails": -1.8, "failed": -2.3, "failure": -2.3, "lose": -1.6, "loses": -1.3,
	"losing": -1.6, "lost": -1.3, "loss": -1.3, "losses": -1.7, "problem": -1.7,
	"problems": -1.7, "trouble": -1.7, "crisis": -3.1, "fear": -2.2,
	"fears": -1.8, "worry": -1.9, "worried": -1.2, "worries": -1.6,
	"concern": -1.4, "concerns": -1.5, "concerned": -1.4, "risk": -1.1,
	"risks": -1.1, "risky": -0.8, "danger": -2.4, "dangerous": -2.1,
	"threat": -2.4, "threatens": -1.6, "warning": -1.4, "warns": -0.4,
	"uncertain": -1.2, "uncertainty": -1.4, "weak": -1.9, "weaker": -1.9,
	"weakness": -1.5, "pressure": -1.2, "struggle": -1.4, "struggles": -1.6,
	"decline": -1.1, "declines": -0.9, "declined": -0.9, "drop": -1.1,
	"drops": -1.1, "dropped": -1.2, "fall": -1.3, "falls": -1.4, "fell": -1.3,
	"falling": -1.2, "cut": -1.1, "cuts": -1.2, "ban": -2.6, "banned": -2.0,
	"bans": -2.1, "reject": -1.7, "rejected": -2.3, "rejects": -1.3,
	"lawsuit": -1.8, "sue": -1.4, "sued": -1.5, "illegal": -2.6,
	"fraud": -2.8, "fraudulent": -2.4, "scam": -2.6, "scams": -2.5,
	"stolen": -2.2, "theft": -1.7, "criminal": -2.4, "arrest": -1.4,
	"arrested": -2.1, "charged": -1.5, "penalty": -1.2, "fine": 0.8,
	"fined": -1.5, "investigation": -0.9, "probe": -0.8, "collapse": -2.3,
	"collapsed": -2.1, "bankrupt": -2.6, "bankruptcy": -2.4, "chaos": -2.7,
	"panic": -2.3, "scared": -1.9, "angry": -2.3, "disappointing": -2.2,
	"disappointed": -1.9,

	// markets
	"bullish": 2.2, "bearish": -2.2, "rally": 1.8, "rallies": 1.7,
	"rallied": 1.8, "surge": 1.9, "surges": 1.9, "surged": 1.9, "soar": 2.0,
	"soars": 2.0, "soared": 2.0, "jump": 1.2, "jumps": 1.2, "jumped": 1.2,
	"climb": 1.1, "climbs": 1.1, "climbed": 1.1, "rise": 0.9, "rises": 0.9,
	"rose": 0.9, "gain": 2.4, "gains": 2.4, "gained": 2.2, "profit": 1.9,
	"profits": 1.9, "profitable": 2.1, "record": 0.8, "breakout": 1.5,
	"recovery": 1.6, "recovers": 1.4, "rebound": 1.4, "rebounds": 1.4,
	"outperform": 1.8, "outperforms": 1.8, "upgrade": 1.6, "upgraded": 1.6,
	"inflows": 1.3, "adoption": 1.2, "milestone": 1.7, "growth": 1.6,
	"grow": 1.3, "grows": 1.3, "growing": 1.3, "expansion": 1.2,
	"crash": -2.7, "crashes": -2.6, "crashed": -2.6, "plunge": -2.2,
	"plunges": -2.2, "plunged": -2.2, "plummet": -2.4, "plummets": -2.4,
	"tumble": -1.8, "tumbles": -1.8, "tumbled": -1.8, "slump": -2.0,
	"slumps": -2.0, "sink": -1.4, "sinks": -1.4, "sank": -1.4, "selloff": -2.0,
	"dump": -1.8, "dumps": -1.6, "downgrade": -1.6, "downgraded": -1.6,
	"underperform": -1.8, "outflows": -1.3, "liquidation": -1.9,
	"liquidations": -1.9, "liquidated": -2.0, "volatile": -0.9,
	"volatility": -0.8, "correction": -0.9, "recession": -2.3,
	"inflation": -1.0, "default": -1.8, "downturn": -2.0, "bubble": -1.2,

	// crypto
	"hack": -2.6, "hacked": -2.7, "hacker": -2.0, "hackers": -2.1,
	"exploit": -2.0, "exploited": -2.3, "breach": -2.4, "rug": -2.2,
	"ponzi": -2.9, "moon": 1.5, "hodl": 0.9, "halving": 0.6,
	"etf": 0.4, "partnership": 1.4, "listing": 0.8, "delisting": -1.8,
	"delisted": -1.9, "crackdown": -2.2, "depeg": -2.3, "insolvent": -2.6,
}

// phraseLexicon holds multi-token entries, matched before single tokens.
var phraseLexicon = map[string]float64{
	"all time high":   2.6,
	"record high":     2.4,
	"new high":        2.0,
	"all time low":    -2.4,
	"alltime high":    2.6,
	"alltime low":     -2.4,
	"record low":      -2.2,
	"rug pull":        -3.0,
	"bear market":     -1.9,
	"bull market":     1.9,
	"sell off":        -2.0,
	"price target":    0.3,
	"short squeeze":   1.0,
	"to the moon":     2.1,
	"death cross":     -1.9,
	"golden cross":    1.9,
	"flash crash":     -2.8,
	"beats estimates": 1.8,
	"misses estimates": -1.8,
}

// boosters scale the magnitude of the next sentiment word.
var boosters = map[string]float64{
	"absolutely": boostIncr, "amazingly": boostIncr, "completely": boostIncr,
	"considerably": boostIncr, "deeply": boostIncr, "enormously": boostIncr,
	"entirely": boostIncr, "especially": boostIncr, "exceptionally": boostIncr,
	"extremely": boostIncr, "greatly": boostIncr, "highly": boostIncr,
	"hugely": boostIncr, "incredibly": boostIncr, "massive": boostIncr,
	"massively": boostIncr, "most": boostIncr, "much": boostIncr,
	"particularly": boostIncr, "really": boostIncr, "remarkably": boostIncr,
	"so": boostIncr, "substantially": boostIncr, "sharply": boostIncr,
	"significantly": boostIncr, "strongly": boostIncr, "totally": boostIncr,
	"tremendously": boostIncr, "very": boostIncr, "huge": boostIncr,
	"almost": boostDecr, "barely": boostDecr, "hardly": boostDecr,
	"marginally": boostDecr, "partly": boostDecr, "slightly": boostDecr,
	"somewhat": boostDecr, "little": boostDecr, "modestly": boostDecr,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "nobody": true,
	"nothing": true, "neither": true, "nor": true, "without": true,
	"cannot": true, "cant": true, "dont": true, "doesnt": true, "didnt": true,
	"isnt": true, "arent": true, "wasnt": true, "werent": true, "wont": true,
	"wouldnt": true, "shouldnt": true, "couldnt": true, "hasnt": true,
	"havent": true, "hadnt": true, "aint": true,
}
