package analysis

// afinn is a subset of the AFINN-165 word list, scored -5..5
var afinn = map[string]int{
	"abandon": -2, "abuse": -3, "accept": 1, "accident": -2, "achieve": 2,
	"admire": 3, "adore": 3, "afraid": -2, "aggressive": -2, "agree": 1,
	"alarm": -2, "amazing": 4, "angry": -3, "annoy": -2, "annoyed": -2,
	"annoying": -2, "anxious": -2, "appreciate": 2, "awesome": 4, "awful": -3,
	"bad": -3, "ban": -2, "beautiful": 3, "best": 3, "betrayed": -3,
	"better": 2, "blame": -2, "bless": 2, "blessed": 3, "boring": -3,
	"brilliant": 4, "broken": -1, "bug": -2, "bugs": -2, "calm": 2,
	"care": 2, "celebrate": 3, "chaos": -2, "cheer": 2, "clean": 2,
	"clever": 2, "confused": -2, "congrats": 2, "congratulations": 2, "cool": 1,
	"crash": -2, "crap": -3, "crazy": -2, "crisis": -3, "cruel": -3,
	"cry": -1, "damn": -2, "danger": -2, "dead": -3, "death": -2,
	"delight": 3, "delighted": 3, "depressed": -2, "destroy": -3, "disappointed": -2,
	"disappointing": -2, "disaster": -2, "disgusting": -3, "dislike": -2, "dumb": -3,
	"easy": 1, "elegant": 2, "enjoy": 2, "excellent": 3, "excited": 3,
	"exciting": 3, "fabulous": 4, "fail": -2, "failed": -2, "failure": -2,
	"fake": -3, "fantastic": 4, "fear": -2, "fine": 2, "fix": 1,
	"fixed": 2, "fraud": -4, "free": 1, "fun": 4, "funny": 4,
	"glad": 3, "good": 3, "gorgeous": 3, "grateful": 3, "great": 3,
	"greatest": 3, "hate": -3, "hated": -3, "happy": 3, "hard": -1,
	"harm": -2, "help": 2, "helpful": 2, "hero": 2, "hope": 2,
	"horrible": -3, "hurt": -2, "ill": -2, "impressive": 3, "improve": 2,
	"improved": 2, "inspiring": 3, "interesting": 2, "joy": 3, "kill": -3,
	"killed": -3, "kind": 2, "lame": -2, "laugh": 1, "liar": -3,
	"like": 2, "lol": 3, "lose": -3, "loss": -3, "lost": -3,
	"love": 3, "loved": 3, "lovely": 3, "loving": 2, "luck": 3,
	"lucky": 3, "mad": -3, "mess": -2, "miss": -2, "mistake": -2,
	"nice": 3, "no": -1, "outstanding": 5, "pain": -2, "panic": -3,
	"perfect": 3, "pleased": 3, "poor": -2, "powerful": 2, "problem": -2,
	"problems": -2, "proud": 2, "rage": -2, "recommend": 2, "regret": -2,
	"rip": -2, "sad": -2, "scam": -2, "scandal": -3, "scared": -2,
	"shame": -2, "shit": -4, "sick": -2, "slow": -2, "smart": 1,
	"sorry": -1, "stupid": -2, "success": 2, "successful": 3, "suck": -3,
	"sucks": -3, "super": 3, "support": 2, "terrible": -3, "thank": 2,
	"thanks": 2, "threat": -2, "tired": -2, "top": 2, "tragedy": -2,
	"trouble": -2, "trust": 1, "ugly": -3, "unfair": -2, "unhappy": -2,
	"upset": -2, "useful": 2, "useless": -2, "victory": 3, "violence": -3,
	"war": -2, "weak": -2, "welcome": 2, "win": 4, "winner": 4,
	"wins": 4, "wonderful": 4, "worried": -3, "worse": -3, "worst": -3,
	"wow": 4, "wrong": -2, "yay": 2, "yes": 1,
}

// emojiScores holds emoji sentiment in the -1..1 range
var emojiScores = map[rune]float64{
	'😀': 0.6, '😁': 0.45, '😂': 0.22, '🤣': 0.35, '😃': 0.56,
	'😄': 0.51, '😅': 0.18, '😆': 0.47, '😉': 0.46, '😊': 0.66,
	'😍': 0.68, '🥰': 0.7, '😘': 0.7, '😎': 0.49, '🙂': 0.4,
	'🤔': 0.0, '😐': -0.07, '😑': -0.1, '🙄': -0.3, '😏': 0.33,
	'😒': -0.21, '😔': -0.15, '😕': -0.3, '😞': -0.32, '😟': -0.3,
	'😢': -0.1, '😭': -0.09, '😡': -0.17, '😠': -0.23, '🤬': -0.5,
	'😱': -0.2, '😨': -0.18, '😩': -0.37, '😤': -0.08, '💀': -0.2,
	'❤': 0.75, '💔': -0.12, '💕': 0.63, '💯': 0.5, '🔥': 0.14,
	'👍': 0.52, '👎': -0.2, '👏': 0.52, '🙏': 0.42, '🎉': 0.73,
	'✨': 0.44, '⭐': 0.4, '🚀': 0.4, '💩': -0.12, '🤮': -0.5,
}

var turkishPositive = []string{"güzel", "harika", "süper", "iyi", "seviyorum", "hoş", "mutlu", "başarılı", "teşekkür"}

var turkishNegative = []string{"kötü", "berbat", "rezil", "korkunç", "nefret", "üzgün", "kızgın", "sorun", "problem"}

var stopWords = map[string]map[string]bool{
	"en": set(
		"a", "about", "after", "all", "also", "am", "an", "and", "any", "are",
		"as", "at", "be", "been", "before", "being", "but", "by", "can", "could",
		"did", "do", "does", "doing", "don", "during", "each", "for", "from", "get",
		"got", "had", "has", "have", "he", "her", "here", "him", "his", "how",
		"if", "in", "into", "is", "it", "its", "just", "me", "more", "most",
		"my", "no", "not", "now", "of", "on", "one", "only", "or", "our",
		"out", "over", "re", "rt", "she", "should", "so", "some", "than", "that",
		"the", "their", "them", "then", "there", "these", "they", "this", "those", "through",
		"to", "too", "up", "us", "very", "was", "we", "were", "what", "when",
		"where", "which", "while", "who", "whom", "why", "will", "with", "would", "you",
		"your", "ll", "ve", "amp", "https", "http", "co",
	),
	"tr": set(
		"acaba", "ama", "ancak", "artık", "aslında", "az", "bana", "bazı", "belki", "ben",
		"beni", "benim", "bile", "bir", "biraz", "biri", "birkaç", "biz", "bize", "bu",
		"buna", "bunu", "bunun", "çok", "çünkü", "da", "daha", "de", "defa", "diye",
		"en", "gibi", "hem", "hep", "hepsi", "her", "hiç", "için", "ile", "ise",
		"kadar", "ki", "kim", "mi", "mı", "mu", "mü", "nasıl", "ne", "neden",
		"nerede", "niye", "o", "olan", "olarak", "oldu", "olduğu", "on", "ona", "onlar",
		"onu", "onun", "sanki", "sen", "siz", "şey", "şu", "tüm", "ve", "veya",
		"ya", "yani", "yine",
	),
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// StopWords returns the stopword set for lang, falling back to English
func StopWords(lang string) map[string]bool {
	if words, ok := stopWords[normalizeLang(lang)]; ok {
		return words
	}
	return stopWords["en"]
}
