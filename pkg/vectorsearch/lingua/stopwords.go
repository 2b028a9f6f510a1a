package lingua

// Stopword sets, keyed by canonical language name. These are deliberately
// compact — a representative working set of closed-class words, not an
// exhaustive corpus-derived list — since preprocessing only requires a
// stable, cacheable stopword set per language, not any particular
// provenance for it.

var spanishStopwords = buildSet([]string{
	"a", "al", "algo", "algunas", "algunos", "ante", "antes", "como", "con",
	"contra", "cual", "cuando", "de", "del", "desde", "donde", "durante",
	"e", "el", "ella", "ellas", "ellos", "en", "entre", "era", "erais",
	"eran", "eras", "eres", "es", "esa", "esas", "ese", "eso", "esos",
	"esta", "estaba", "estaban", "estar", "este", "esto", "estos", "fue",
	"fueron", "fui", "fuimos", "ha", "han", "hasta", "hay", "la", "las",
	"le", "les", "lo", "los", "mas", "más", "me", "mi", "mientras", "muy",
	"nada", "ni", "no", "nos", "nosotros", "o", "os", "otra", "otras",
	"otro", "otros", "para", "pero", "poco", "por", "porque", "que", "quien",
	"quienes", "se", "sera", "será", "si", "sí", "sin", "sobre", "sois",
	"somos", "son", "soy", "sus", "suyo", "tambien", "también", "te",
	"tenia", "tenía", "tiene", "todo", "todos", "tu", "tus", "tuyo", "un",
	"una", "uno", "unos", "vosotras", "vosotros", "y", "ya", "yo",
})

var portugueseStopwords = buildSet([]string{
	"a", "ao", "aos", "aquela", "aquelas", "aquele", "aqueles", "as", "até",
	"com", "como", "da", "das", "de", "dela", "delas", "dele", "deles",
	"depois", "do", "dos", "e", "ela", "elas", "ele", "eles", "em", "entre",
	"era", "eram", "essa", "essas", "esse", "esses", "esta", "estas",
	"este", "estes", "eu", "foi", "foram", "fui", "fomos", "há", "isso",
	"isto", "já", "la", "lhe", "lhes", "mais", "mas", "me", "mesmo", "meu",
	"meus", "minha", "minhas", "muito", "na", "não", "nas", "no", "nos",
	"nossa", "nossas", "nosso", "nossos", "num", "numa", "o", "os", "ou",
	"para", "pela", "pelas", "pelo", "pelos", "por", "quando", "que",
	"quem", "se", "sem", "ser", "seu", "seus", "só", "somos", "sua",
	"suas", "também", "te", "tem", "tinha", "tive", "tu", "tua", "tuas",
	"um", "uma", "você", "vocês",
})

var englishStopwords = buildSet([]string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "aren't", "as", "at", "be", "because", "been",
	"before", "being", "below", "between", "both", "but", "by", "can't",
	"cannot", "could", "couldn't", "did", "didn't", "do", "does", "doesn't",
	"doing", "don't", "down", "during", "each", "few", "for", "from",
	"further", "had", "hadn't", "has", "hasn't", "have", "haven't",
	"having", "he", "her", "here", "hers", "herself", "him", "himself",
	"his", "how", "i", "if", "in", "into", "is", "isn't", "it", "its",
	"itself", "me", "more", "most", "my", "myself", "no", "nor", "not",
	"of", "off", "on", "once", "only", "or", "other", "ought", "our",
	"ours", "ourselves", "out", "over", "own", "same", "she", "should",
	"so", "some", "such", "than", "that", "the", "their", "theirs", "them",
	"themselves", "then", "there", "these", "they", "this", "those",
	"through", "to", "too", "under", "until", "up", "very", "was",
	"wasn't", "we", "were", "weren't", "what", "when", "where", "which",
	"while", "who", "whom", "why", "with", "won't", "would", "wouldn't",
	"you", "your", "yours", "yourself", "yourselves",
})

var frenchStopwords = buildSet([]string{
	"au", "aux", "avec", "ce", "ces", "dans", "de", "des", "du", "elle",
	"en", "et", "eux", "il", "ils", "je", "la", "le", "les", "leur",
	"lui", "ma", "mais", "me", "même", "mes", "moi", "mon", "ne", "nos",
	"notre", "nous", "on", "ou", "par", "pas", "pour", "qu", "que", "qui",
	"sa", "se", "ses", "son", "sur", "ta", "te", "tes", "toi", "ton",
	"tu", "un", "une", "vos", "votre", "vous", "c", "d", "j", "l", "à",
	"m", "n", "s", "t", "y", "été", "étée", "étées", "étés", "étant",
	"suis", "es", "est", "sommes", "êtes", "sont",
})

func buildSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
