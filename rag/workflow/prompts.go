package workflow

import (
	"fmt"
	"strings"

	"github.com/smallnest/docraggo/rag"
)

const gradePrompt = `You are a grader assessing relevance of retrieved documents to a user question.
Here are the retrieved documents:

%s

Here is the user question: %s
If the documents contain keyword(s) or semantic meaning related to the user question, grade them as relevant.
Give a binary score 'yes' or 'no' to indicate whether the documents are relevant to the question.`

const rewritePrompt = `Look at the input and try to reason about the underlying semantic intent / meaning.
Here is the initial question:
-------
%s
-------
Here is the latest attempted reformulation, which did not retrieve relevant documents:
-------
%s
-------
Formulate an improved question. Reply with the improved question only.`

const generateSystemPrompt = "You are an assistant for question-answering tasks. " +
	"Use the provided pieces of retrieved context to answer the question. " +
	"If you don't know the answer, just say that you don't know. " +
	"Use three sentences maximum and keep the answer concise."

const generatePrompt = `Question: %s
Context: %s`

// emptyContext stands in for retrieved context when no passages survived the
// retrieval loop, so the generator still produces a user-facing answer.
const emptyContext = "No relevant documents were found in the knowledge base. " +
	"Tell the user the available documents contain insufficient evidence to answer."

// formatPassages renders retrieved passages into the prompt context block.
func formatPassages(passages []rag.Passage) string {
	if len(passages) == 0 {
		return emptyContext
	}

	var b strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&b, "Document %d (source: %s, score: %.3f):\n%s\n\n", i+1, p.SourceID, p.Score, p.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
