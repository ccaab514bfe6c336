package moderation

import "regexp"

// Lexicon is the fixed configuration of the local filter: the denylist,
// phrase-level harassment patterns and an allowlist of clean words that
// contain a denylisted term. It is loaded once at startup and never mutated.
type Lexicon struct {
	Words    []string
	Patterns []*regexp.Regexp
	Allow    []string
}

// DefaultLexicon returns the built-in lexicon: explicit profanity and slurs in
// English and Hindi/Hinglish, plus harassment phrases in both registers.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Words:    append([]string(nil), defaultWords...),
		Patterns: defaultPatterns,
		Allow:    append([]string(nil), defaultAllow...),
	}
}

var defaultWords = []string{
	// Hindi / regional, explicit
	"madharchod", "madarchod", "madarjaat", "bhenchod", "behenchod", "bhen ke lode", "bhenkelode",
	"chutiya", "chootiya", "chut", "choot", "lavda", "lauda", "loda", "lode", "land", "lund",
	"bhosdike", "bhosadike", "bhosdiwale", "randi", "randwa", "saala", "saale", "harami", "haramkhor",
	"kamine", "kamina", "bhadwe", "bhadwa", "gand", "gaand", "gandu", "jhaatu", "jhaat", "tatte",
	"chodu", "chodna", "chod", "gaandmara", "gaand mara", "maa ki", "behen ki", "bhen ki",
	// abbreviations
	"mc", "bc", "mkc", "bkl", "mka", "tmkc", "bsdk", "bkc", "mkb", "bkb", "lkb",
	// phrases
	"teri maa ki", "behen ka", "maa chod", "bhen chod", "teri behen", "tera baap",
	"maa ka bhosda", "behen ka loda", "gand mara", "lund choos", "chut ka",
	// English, explicit
	"fuck", "fucking", "fucker", "shit", "bitch", "asshole", "bastard", "dick", "pussy",
	"whore", "slut", "cunt", "nigger", "faggot", "motherfucker", "cocksucker", "bullshit",
	"fuckhead", "dipshit", "jackass", "cock", "penis", "vagina",
	// insults
	"stupid", "idiot", "dumb", "useless", "trash", "garbage", "loser", "moron", "retard", "pathetic",
	"horrible", "disgusting", "pagal", "bewakoof", "gadha", "ullu", "chutiye",
}

// defaultAllow lists whole words that contain a denylisted term but are
// clean ("land" in "island", "chut" in "parachute", "loser" in "closer").
// A matching token is skipped by the substring pass only; words glued to it
// are still checked.
var defaultAllow = []string{
	"island", "islands", "england", "ireland", "scotland", "finland", "iceland", "poland",
	"holland", "thailand", "mainland", "homeland", "highland", "highlands", "inland",
	"wonderland", "wasteland", "farmland", "landing", "landed", "landmark", "landscape",
	"bland", "garland", "portland", "oakland", "maryland",
	"explode", "explodes", "exploded", "implode", "laudable",
	"propaganda", "uganda", "gandhi",
	"parachute", "parachutes", "parachuting", "chute", "chutes", "chutney",
	"grandiose", "brandish", "branding", "tattered",
	"scunthorpe", "dickens", "dickinson",
	"cocktail", "cocktails", "peacock", "peacocks", "cockpit", "cockroach", "cockroaches",
	"cockatoo", "hancock", "hitchcock", "shuttlecock",
	"dumbbell", "dumbbells", "oxymoron", "closer", "closers", "retardant",
	"psychodrama",
}

var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you\s+(are|r)\s+(stupid|useless|trash|garbage|dumb|idiot|pathetic|horrible)`),
	regexp.MustCompile(`(?i)nobody\s+(likes|wants)\s+you`),
	regexp.MustCompile(`(?i)just\s+(leave|go\s+away|die)`),
	regexp.MustCompile(`(?i)you('ll|will)\s+regret`),
	regexp.MustCompile(`(?i)people\s+like\s+you`),
	regexp.MustCompile(`(?i)go\s+away`),
	regexp.MustCompile(`(?i)you\s+ruin`),
	regexp.MustCompile(`(?i)hate\s+you`),
	regexp.MustCompile(`(?i)kill\s+(you|yourself)`),
	regexp.MustCompile(`(?i)shut\s+(up|the\s+fuck)`),
	regexp.MustCompile(`(?i)you\s+suck`),
	regexp.MustCompile(`(?i)get\s+lost`),
	regexp.MustCompile(`(?i)drop\s+dead`),
	regexp.MustCompile(`(?i)tu\s+(bilkul|bahut)\s+\w+\s+hai`),
	regexp.MustCompile(`(?i)tum\s+\w+\s+ho`),
	regexp.MustCompile(`(?i)bhen\s*k[ei]\s*lod[ea]`),
	regexp.MustCompile(`(?i)maa\s*k[ei]\s*(lod[ea]|chut|bhosda)`),
	regexp.MustCompile(`(?i)teri\s*(maa|behen|behan)`),
	regexp.MustCompile(`(?i)ter[ai]\s*baap`),
	regexp.MustCompile(`(?i)gand\s*mar`),
	regexp.MustCompile(`(?i)lund\s*choos`),
	regexp.MustCompile(`(?i)chut\s*(k[ei]|mara)`),
}
