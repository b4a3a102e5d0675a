package models

const (
	StreamToken   = "token"
	StreamSources = "sources"
	StreamDone    = "done"
	StreamError   = "error"

	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
	QualityError     = "error"
)

var (
	SystemPrompt = `You are a knowledge-base assistant that answers questions about the company's policies, products, and internal documentation.

When answering questions:
1. Be accurate and cite specific information from the provided context
2. If the information isn't in the context, say so clearly
3. Be friendly and professional
4. Format responses clearly with bullet points or numbered lists when appropriate
5. Keep responses concise but comprehensive

Context from relevant documents will be provided with each query. Use the document titles to keep track of where information came from, but do not repeat raw file names in your answer.`

	AugmentedPromptTemplate = `Based on the following context from the company's documents, please answer the user's question.

CONTEXT:
%s

USER QUESTION:
%s

Please provide a helpful and accurate answer based on the context provided. If the information needed to answer the question is not in the context, please state that clearly.`
)
