package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github/studyrag/server/models"

	openai "github.com/sashabaranov/go-openai"
)

// sourcePreviewChars bounds the truncated source content returned with a
// chat answer; the full chunk is still available in FullContent.
const sourcePreviewChars = 200

// GenerationService produces LLM output: study materials from extracted
// text, and retrieval-grounded answers to questions about a document.
type GenerationService interface {
	GenerateStudyMaterials(ctx context.Context, text string) (*models.StudyMaterials, error)
	AnswerQuestion(ctx context.Context, documentID, question string, topK int) (*models.ChatResponse, error)
}

type generationServiceImpl struct {
	chatClient *openai.Client
	chatModel  string
	retrieval  RetrievalService
}

// NewGenerationService creates a generation service. The chat client may
// point at any OpenAI-format endpoint; OpenRouter is the default upstream.
func NewGenerationService(chatClient *openai.Client, chatModel string, retrieval RetrievalService) GenerationService {
	return &generationServiceImpl{
		chatClient: chatClient,
		chatModel:  chatModel,
		retrieval:  retrieval,
	}
}

// GenerateStudyMaterials asks the model for the strict-JSON study bundle
// (summary, flashcards, quiz) and parses it, salvaging the JSON object when
// the model wraps it in prose.
func (g *generationServiceImpl) GenerateStudyMaterials(ctx context.Context, text string) (*models.StudyMaterials, error) {
	resp, err := g.chatClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: MaterialsSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildMaterialsPrompt(text)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("study material generation api call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("study material generation returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	materials := &models.StudyMaterials{}
	if err := json.Unmarshal([]byte(raw), materials); err == nil {
		return materials, nil
	}

	// Fallback: extract only the JSON object if an explanation sneaks in.
	extracted, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("study material response contained no JSON object")
	}
	if err := json.Unmarshal([]byte(extracted), materials); err != nil {
		return nil, fmt.Errorf("could not parse study material JSON: %w", err)
	}
	return materials, nil
}

// AnswerQuestion retrieves the most relevant chunks for the question and
// conditions a chat completion on them. An empty retrieval is not an error:
// the caller gets the fixed fallback answer with no sources.
func (g *generationServiceImpl) AnswerQuestion(ctx context.Context, documentID, question string, topK int) (*models.ChatResponse, error) {
	results, err := g.retrieval.QueryDocuments(ctx, documentID, question, topK)
	if err != nil {
		return nil, err
	}

	validDocs := make([]string, 0, len(results.Documents))
	validIdx := make([]int, 0, len(results.Documents))
	for i, doc := range results.Documents {
		if doc != "" {
			validDocs = append(validDocs, doc)
			validIdx = append(validIdx, i)
		}
	}

	if len(validDocs) == 0 {
		return &models.ChatResponse{
			Success: true,
			Answer:  NoAnswerFallback,
			Sources: []models.SourceDocument{},
			Query:   question,
		}, nil
	}

	log.Printf("SERVICE: Retrieved %d relevant chunks for document %s", len(validDocs), documentID)

	resp, err := g.chatClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: ChatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildChatPrompt(BuildChatContext(validDocs), question)},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion api call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	sources := make([]models.SourceDocument, 0, len(validDocs))
	for n, i := range validIdx {
		doc := results.Documents[i]
		var distance float64
		if i < len(results.Distances) {
			distance = results.Distances[i]
		}
		var metadata map[string]interface{}
		if i < len(results.Metadatas) {
			metadata = results.Metadatas[i]
		}
		sources = append(sources, models.SourceDocument{
			Content:        truncate(doc, sourcePreviewChars),
			FullContent:    doc,
			RelevanceScore: 1 - distance,
			Metadata:       metadata,
			SourceNumber:   n + 1,
		})
	}

	return &models.ChatResponse{
		Success:         true,
		Answer:          resp.Choices[0].Message.Content,
		Sources:         sources,
		Query:           question,
		RetrievedChunks: len(validDocs),
	}, nil
}

// ExtractJSONObject returns the substring from the first '{' to the last
// '}' of s, when both exist in order.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:runeFloor(s, n)] + "..."
}
