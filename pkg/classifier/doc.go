// Package classifier maps free-text analytic questions to structured query
// intents.
//
// Classification is keyword scoring over an ordered list of trigger-phrase
// groups, not a model. First match wins by declaration order; this is a
// deliberate determinism-over-optimality tradeoff, so a query mentioning
// both "total" and "category" classifies by whichever group is declared
// first. Entity extraction runs as an independent pass over the known
// subject labels of the catalog.
//
// The catalog also carries the per-type description templates the
// materializer renders, keeping the embedded fact text stable across runs.
package classifier
