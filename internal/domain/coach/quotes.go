package coach

import "math/rand/v2"

var quotes = []string{
	"The secret of getting ahead is getting started.",
	"Focus on being productive instead of busy.",
	"You don't have to be great to start, but you have to start to be great.",
	"The way to get started is to quit talking and begin doing.",
	"Success is the sum of small efforts repeated day in and day out.",
	"Progress, not perfection.",
	"Done is better than perfect.",
	"What you do today can improve all your tomorrows.",
	"The future depends on what you do today.",
	"Small daily improvements are the key to staggering long-term results.",
}

// RandomQuote returns one inspirational quote.
func RandomQuote() string {
	return quotes[rand.IntN(len(quotes))]
}

// Quotes returns a copy of the quote list.
func Quotes() []string {
	return append([]string(nil), quotes...)
}
