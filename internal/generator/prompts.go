package generator

// systemPrompt is the system prompt for commentary generation. It takes the play name.
const systemPrompt = `You are a Shakespeare scholar writing marginal commentary on %s for an attentive general reader. You are precise about the Early Modern English text, you cite the Geneva Bible where Shakespeare's language echoes it, and you never invent stage history or sources you are unsure of.

Write each section as a short fragment of HTML using only <p>, <em>, <strong>, <ul>, <li> and <blockquote>. Do not include headings; section titles are supplied as JSON keys.`

// analysisPrompt is the user prompt template for a new passage.
// Arguments: play, scene, passage, depth guidance, section list, supplementary context.
const analysisPrompt = `Comment on the following passage from %s, %s.

Passage:
---
%s
---

%s

Respond with a single JSON object whose keys are exactly these section titles, in this order, and whose values are the HTML for each section:
%s
%s`

// followUpPrompt is the user prompt template for a question about a previous analysis.
const followUpPrompt = `The reader has a follow-up question about the passage and your analysis:

%s

Respond with a single JSON object with one key, "Answer", whose value is the HTML answer.`

// modeGuidance describes the expected depth for each generator mode.
var modeGuidance = map[string]string{
	"basic": `Keep it brief and plain: paraphrase the passage in modern English and give just enough context to follow the scene. Avoid critical jargon.`,

	"expert": `Write for an advanced student: gloss difficult words, discuss imagery and rhetoric, connect the passage to the play's larger themes, and note any Biblical resonance suggested by the supplementary passages.`,

	"fullfathomfive": `Write for a specialist: in addition to close reading, address prosody and metrical irregularities, textual cruxes in the Folio, Holinshed and other sources, notable performances and the main lines of critical debate. Be exhaustive but exact.`,
}

// contextPreamble introduces supplementary material appended to the prompt.
const contextPreamble = `
Supplementary context (use it only where it genuinely illuminates the passage):
`
