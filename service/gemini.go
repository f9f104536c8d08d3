package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vincent-petithory/dataurl"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultTextModel  = "gemini-2.0-flash"
	DefaultImageModel = "gemini-2.0-flash-preview-image-generation"
)

// ChapterGenerator produces chapter bodies for a book concept.
type ChapterGenerator interface {
	GenerateChapters(ctx context.Context, prompt, genre string, count int) ([]string, error)
}

// CoverGenerator produces cover art for a book.
type CoverGenerator interface {
	GenerateCover(ctx context.Context, req CoverRequest) (*CoverImage, error)
}

// ChapterRewriter rewrites a chapter following freeform instructions.
type ChapterRewriter interface {
	RewriteChapter(ctx context.Context, content, instructions string) (string, error)
}

type CoverRequest struct {
	Title string
	Genre string
	// Prompt, when set, overrides the default cover description.
	Prompt string
	// InspirationDataURI is an optional "data:<mime>;base64,..." image.
	InspirationDataURI string
}

type CoverImage struct {
	MIMEType string
	Data     []byte
}

// GeminiService implements all three generation collaborators on the
// Gemini API.
type GeminiService struct {
	client     *genai.Client
	textModel  string
	imageModel string
	logger     *zap.Logger
}

var (
	_ ChapterGenerator = (*GeminiService)(nil)
	_ CoverGenerator   = (*GeminiService)(nil)
	_ ChapterRewriter  = (*GeminiService)(nil)
)

func NewGeminiService(ctx context.Context, apiKey, textModel, imageModel string, logger *zap.Logger) (*GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if textModel == "" {
		textModel = DefaultTextModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	return &GeminiService{
		client:     client,
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}, nil
}

func (s *GeminiService) GenerateChapters(ctx context.Context, prompt, genre string, count int) ([]string, error) {
	p := fmt.Sprintf(`You are a professional book writer. Generate the requested number of chapters for a book based on the given prompt and genre.

Prompt: %s
Genre: %s
Number of Chapters: %d

Return the chapters as a JSON array of strings, one string per chapter, in narrative order.`, prompt, genre, count)

	resp, err := s.client.Models.GenerateContent(ctx, s.textModel, genai.Text(p), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate chapters: %w", err)
	}
	var chapters []string
	if err := json.Unmarshal([]byte(resp.Text()), &chapters); err != nil {
		return nil, fmt.Errorf("decode generated chapters: %w", err)
	}
	s.logger.Debug("chapters generated", zap.Int("requested", count), zap.Int("returned", len(chapters)))
	return chapters, nil
}

func (s *GeminiService) GenerateCover(ctx context.Context, req CoverRequest) (*CoverImage, error) {
	base := req.Prompt
	if base == "" {
		base = fmt.Sprintf("A professional, eye-catching book cover for a %s book titled %q.", req.Genre, req.Title)
	}
	final := base + " The style should be high-quality and suitable for a bestseller. Do not include any text or words on the image itself."

	var parts []*genai.Part
	if req.InspirationDataURI != "" {
		du, err := dataurl.DecodeString(req.InspirationDataURI)
		if err != nil {
			return nil, fmt.Errorf("decode inspiration image: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(du.Data, du.ContentType()))
	}
	parts = append(parts, genai.NewPartFromText(final))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := s.client.Models.GenerateContent(ctx, s.imageModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("generate cover: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &CoverImage{MIMEType: mime, Data: part.InlineData.Data}, nil
			}
		}
	}
	return nil, errors.New("image generation returned no media")
}

func (s *GeminiService) RewriteChapter(ctx context.Context, content, instructions string) (string, error) {
	p := fmt.Sprintf(`Summarize and rewrite the following chapter content according to the instructions provided.

Chapter Content:
%s

Instructions:
%s

Rewritten Chapter:`, content, instructions)

	resp, err := s.client.Models.GenerateContent(ctx, s.textModel, genai.Text(p), nil)
	if err != nil {
		return "", fmt.Errorf("rewrite chapter: %w", err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", errors.New("rewrite returned no text")
	}
	return out, nil
}
