package services

import (
	"fmt"
	"strings"
)

// NoAnswerFallback is returned when retrieval finds nothing usable for a
// question.
const NoAnswerFallback = "I couldn't find relevant information in the document to answer your question. Please try rephrasing your question or ask about different topics covered in the document."

// ChatSystemPrompt constrains the model to the retrieved context.
const ChatSystemPrompt = `You are a helpful AI assistant. Answer questions based ONLY on the provided document context.
If the answer isn't clearly in the context, say so. Always be accurate and cite which source number you're referencing when possible.
Be comprehensive but concise in your answers.`

// MaterialsSystemPrompt keeps the study-material generator on the JSON rails.
const MaterialsSystemPrompt = "You are a strict JSON generator assistant. Always reply with valid JSON only."

// BuildChatContext numbers the retrieved chunks so the model can cite them.
func BuildChatContext(chunks []string) string {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("[Source %d]: %s", i+1, chunk))
	}
	return strings.Join(parts, "\n\n")
}

// BuildChatPrompt assembles the user turn for a RAG chat request.
func BuildChatPrompt(context, question string) string {
	return fmt.Sprintf(`Context from document:
%s

Question: %s

Please provide a comprehensive answer based on the context above. If you reference specific information, mention which source number it came from.`, context, question)
}

// BuildMaterialsPrompt asks for summary, flashcards and quiz as one strict
// JSON document shaped like models.StudyMaterials.
func BuildMaterialsPrompt(text string) string {
	return fmt.Sprintf(`You are a strict assistant. Output only valid JSON. No markdown. No explanation. No text before or after.

Return the following structure filled with meaningful, well-written content based on the input. Each quiz question must have four options, and one must be correct. Set "correct" to 1, 2, 3, or 4 based on the position of the correct option in the array (1-based index). Flashcard difficulties must be "easy", "medium", or "hard". Questions must vary naturally in structure and tone.

{
  "summary": {
    "mainPoints": [
      { "keyPoint": "..." },
      { "keyPoint": "..." },
      { "keyPoint": "..." },
      { "keyPoint": "..." }
    ],
    "keyInsights": "...",
    "recommendations": [
      { "statement": "..." },
      { "statement": "..." },
      { "statement": "..." }
    ]
  },
  "flashcards": [
    { "question": "...", "answer": "...", "difficulty": "easy" },
    { "question": "...", "answer": "...", "difficulty": "medium" },
    { "question": "...", "answer": "...", "difficulty": "hard" },
    { "question": "...", "answer": "...", "difficulty": "medium" }
  ],
  "quiz": [
    {
      "question": "...",
      "options": ["...", "...", "...", "..."],
      "correct": 1
    }
  ]
}

Generate 10 quiz questions in total.

INPUT TEXT:
%s`, text)
}

// MultimodalExtractionPrompt drives text extraction from images, SVG and
// HTML uploads.
const MultimodalExtractionPrompt = "Analyze the uploaded file (image, HTML, or SVG). Extract all relevant text, code, or data. Summarize the key information concisely. Output ONLY the extracted/summarized text, ready to be used as input for generating structured materials (summary, quiz, flashcards). Ignore any user interface elements or background noise."
