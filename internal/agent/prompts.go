package agent

// collectorSystem frames the first step: normalizing the raw per-site batch
// into a uniform listing array.
const collectorSystem = `You are an expert data collector specializing in prediction markets.
You receive raw market listings scraped from multiple prediction market sites and
return them as clean, structured JSON.`

const collectorInstructions = `Normalize the following collected market data.

For each listing extract:
- site: the source site name, unchanged
- id: the market identifier (fall back to the title if no identifier exists)
- title: the market title or question
- price: the current price or probability on a 0-1 scale, or null when unknown
- url: the market URL, or an empty string

Respond with ONLY a JSON array of objects with exactly these fields:
[{"site": "...", "id": "...", "title": "...", "price": 0.75, "url": "..."}]

Raw data:
`

// identifierSystem frames the second step: cross-site grouping.
const identifierSystem = `You are an expert market analyst who identifies similar prediction
markets across different platforms. You use semantic analysis to determine whether
markets describe the same real-world question.`

const identifierInstructions = `Analyze the following market listings and identify which markets
represent the same product across different sites.

Your analysis should:
1. Compare market titles for semantic similarity
2. Consider market context and subject matter
3. Group similar markets together
4. Assign each member a confidence score between 0 and 1
5. Choose a representative title for each group

Every input market must appear in exactly one group; a market with no match
forms its own group with confidence 1.0.

Respond with ONLY a JSON object of this shape:
{"unified_products": [{"unified_title": "...", "members": [{"site": "...", "id": "...", "title": "...", "price": 0.75, "confidence": 0.95}]}]}

Market listings:
`
