package router

// stopwords never become inferred topic keywords.
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "again": {}, "all": {}, "also": {},
	"am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {}, "at": {},
	"back": {}, "be": {}, "because": {}, "been": {}, "before": {}, "but": {},
	"by": {}, "can": {}, "could": {}, "did": {}, "do": {}, "does": {},
	"doing": {}, "down": {}, "even": {}, "for": {}, "from": {}, "get": {},
	"getting": {}, "go": {}, "going": {}, "got": {}, "had": {}, "has": {},
	"have": {}, "having": {}, "he": {}, "her": {}, "here": {}, "hers": {},
	"him": {}, "his": {}, "how": {}, "i": {}, "if": {}, "in": {}, "into": {},
	"is": {}, "it": {}, "its": {}, "just": {}, "like": {}, "lot": {}, "me": {},
	"more": {}, "most": {}, "my": {}, "no": {}, "not": {}, "now": {}, "of": {},
	"on": {}, "one": {}, "or": {}, "our": {}, "out": {}, "really": {},
	"right": {}, "said": {}, "say": {}, "saying": {}, "see": {}, "so": {},
	"some": {}, "sort": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "to": {},
	"up": {}, "us": {}, "very": {}, "was": {}, "we": {}, "were": {}, "what": {},
	"when": {}, "which": {}, "with": {}, "would": {}, "yeah": {}, "you": {},
	"your": {},
}
