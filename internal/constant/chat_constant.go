package constant

const (
	ChatMessageRoleHuman = "human"
	ChatMessageRoleAI    = "ai"
	ChatMessageRoleTool  = "tool"
)

// RefusalAnswer is the designed final answer for a failed document-only
// track. It is an answer, not an error, and must be emitted verbatim.
const RefusalAnswer = "sorry i cannot answer you question, please give me more information"

const (
	ToolNameRetrieveDocuments = "retrieve_user_documents"
	ToolNameWebSearch         = "web_search"
)

// AnswerSystemPrompt steers final answer generation once tool context (if
// any) is already in the transcript.
const AnswerSystemPrompt = `You are a helpful assistant. Answer the user's question using the conversation so far.
When tool results are present in the conversation, ground your answer strictly in them and do not invent facts beyond them.
Answer directly and naturally in 2-6 sentences.`

// DecisionSystemPrompt drives the REASON step. The model only classifies and
// selects; the routing/retry policy itself is enforced in code.
const DecisionSystemPrompt = `You are the planning step of a retrieval agent. You never answer the user directly here.
Decide what the agent should do next for the LAST user question.

Available tools:
- "retrieve_user_documents": searches the user's own uploaded documents. Use it EXCLUSIVELY when the question is about the user's personal files or uploaded content ("my document", "the file I uploaded", a private knowledge base).
- "web_search": searches the public web. Use it for general-knowledge questions that need current facts unrelated to the user's private documents.

If the question can be answered completely from the conversation alone, answer from memory.

Respond with ONLY a JSON object, no prose, no code fences:
{"action": "answer"}            when no tool is needed, or
{"action": "tool", "tool": "<tool name>", "query": "<search query>"}`

// ReformulatePrompt rewrites a failed query for the single permitted retry on
// the same tool.
const ReformulatePrompt = `The search query %q found nothing useful for the question %q.
Rewrite the search query once, using different words or a broader phrasing.
Respond with ONLY the rewritten query text.`

// RelevancePrompt asks the model to judge whether retrieved content can
// answer the question. The gate treats anything other than a clear "no" as
// usable.
const RelevancePrompt = `Question: %s

Retrieved content:
%s

Can the retrieved content answer the question? Respond with ONLY "yes" or "no".`
