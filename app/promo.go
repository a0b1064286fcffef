package app

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// MessageSpan is one piece of a promo message: plain text or a link.
type MessageSpan struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
}

type MessageConfig struct {
	Spans []MessageSpan `json:"spans"`
}

func text(content string) MessageSpan {
	return MessageSpan{Type: "text", Content: content}
}

func link(content, url string) MessageSpan {
	return MessageSpan{Type: "link", Content: content, URL: url}
}

// promoMessages rotates in the chat view between model responses.
var promoMessages = []MessageConfig{
	{Spans: []MessageSpan{
		text("Tired of waiting on AI?"),
		link(" Get Drew Pro", "/subscription"),
		text(" for faster edits with Turbo Edits."),
	}},
	{Spans: []MessageSpan{
		text("Save up to 5x on AI costs with "),
		link("Drew Pro's Smart Context", "https://deepseekdrew.com"),
	}},
	{Spans: []MessageSpan{
		text("Getting stuck in a debugging loop? Try a different model."),
	}},
	{Spans: []MessageSpan{
		text("Getting stuck? Read our "),
		link("debugging tips", "https://www.deepseekdrew.sh/docs/guides/debugging"),
	}},
	{Spans: []MessageSpan{
		text("Advanced tip: Customize your "),
		link("AI rules", "https://www.deepseekdrew.sh/docs/guides/ai-rules"),
	}},
	{Spans: []MessageSpan{
		text("Want to know what's next? Check out our "),
		link("roadmap", "https://www.deepseekdrew.sh/docs/roadmap"),
	}},
	{Spans: []MessageSpan{
		text("Like DeepSeekDrew? Star it on "),
		link("GitHub", "https://github.com/drewsephski"),
	}},
}

// PickPromoMessage selects a message for the given seed. The seed is hashed
// so consecutive seeds do not walk the table in order.
func PickPromoMessage(seed int) MessageConfig {
	idx := hashSeed(uint32(seed)) % uint32(len(promoMessages))
	return promoMessages[idx]
}

// hashSeed is MurmurHash3's fmix32 finalizer, enough scrambling for a
// cosmetic picker.
func hashSeed(key uint32) uint32 {
	key ^= key >> 16
	key *= 0x85ebca6b
	key ^= key >> 13
	key *= 0xc2b2ae35
	key ^= key >> 16
	return key
}

// PromoHandler returns the rotation's pick for a seed.
func PromoHandler(c *gin.Context) {
	seed := 0
	if q := c.Query("seed"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seed"})
			return
		}
		seed = v
	}

	c.JSON(http.StatusOK, PickPromoMessage(seed))
}
