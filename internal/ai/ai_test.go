package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFields = []TargetField{
	{Name: "lane_origin", Description: "Start location of shipment lane"},
	{Name: "lane_destination", Description: "End location of shipment lane"},
	{Name: "rate_value", Description: "Main freight rate"},
}

func TestKeywordProvider(t *testing.T) {
	p := NewKeywordProvider()
	assert.Equal(t, "deterministic-fallback", p.Name())

	got, err := p.SuggestMapping(context.Background(),
		[]string{"Origin Port", "From City", "To Port", "Dest", "Price USD", "Currency", "Valid From", "Carrier"}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Origin Port": "lane_origin",
		"From City":   "lane_origin",
		"To Port":     "lane_destination",
		"Dest":        "lane_destination",
		"Price USD":   "rate_value",
		"Currency":    "currency",
	}, got)
}

func TestParseMapping(t *testing.T) {
	headers := []string{"From City", "To City", "Remarks"}
	text := "```json\n{\"From City\": \"lane_origin\", \"To City\": \"lane_destination\", \"Remarks\": null, \"Ghost\": \"rate_value\", \"Amount\": \"bogus\"}\n```"

	got, err := parseMapping(text, headers, testFields)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"From City": "lane_origin", "To City": "lane_destination"}, got)

	_, err = parseMapping("sorry, I cannot help", headers, testFields)
	assert.Error(t, err)
}

func TestChatProviderOpenAI(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"From City\":\"lane_origin\"}"}}]}`))
	}))
	defer srv.Close()

	p := NewChatProvider(ChatOptions{Format: FormatOpenAI, APIKey: "sk-test", Endpoint: srv.URL}, testFields)
	got, err := p.SuggestMapping(context.Background(), []string{"From City"}, []map[string]string{{"From City": "Shanghai"}})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"From City": "lane_origin"}, got)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Equal(t, "openai", p.Name())
}

func TestChatProviderQwen(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"output":{"choices":[{"message":{"role":"assistant","content":"{\"Tarif\":\"rate_value\"}"}}]}}`))
	}))
	defer srv.Close()

	p := NewChatProvider(ChatOptions{Format: FormatQwen, APIKey: "k", Endpoint: srv.URL}, testFields)
	got, err := p.SuggestMapping(context.Background(), []string{"Tarif"}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"Tarif": "rate_value"}, got)
	assert.Contains(t, gotBody, "input")
	assert.Equal(t, "qwen-plus", gotBody["model"])
}

func TestChatProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewChatProvider(ChatOptions{Format: FormatOpenAI, APIKey: "k", Endpoint: srv.URL}, testFields)
	_, err := p.SuggestMapping(context.Background(), []string{"x"}, nil)
	assert.Error(t, err)
}

type fakeBedrock struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeBedrock) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrockProvider(t *testing.T) {
	fake := &fakeBedrock{body: `{"content":[{"type":"text","text":"{\"POL\": \"lane_origin\", \"POD\": \"lane_destination\"}"}],"stop_reason":"end_turn"}`}
	p := NewBedrockProviderWithClient(fake, "", testFields)

	got, err := p.SuggestMapping(context.Background(), []string{"POL", "POD"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"POL": "lane_origin", "POD": "lane_destination"}, got)

	require.NotNil(t, fake.input)
	assert.Equal(t, DefaultBedrockModel, *fake.input.ModelId)

	var req bedrockRequest
	require.NoError(t, json.Unmarshal(fake.input.Body, &req))
	assert.Equal(t, "bedrock-2023-05-31", req.AnthropicVersion)
}

func TestBedrockProviderError(t *testing.T) {
	p := NewBedrockProviderWithClient(&fakeBedrock{err: errors.New("throttled")}, "", testFields)
	_, err := p.SuggestMapping(context.Background(), []string{"POL"}, nil)
	assert.Error(t, err)
}

func TestBuildProviderFallback(t *testing.T) {
	ctx := context.Background()

	p := BuildProvider(ctx, ProviderConfig{Provider: "openai"}, testFields)
	assert.Equal(t, KeywordProviderName, p.Name())

	p = BuildProvider(ctx, ProviderConfig{Provider: "gemini", APIKey: "x"}, testFields)
	assert.Equal(t, KeywordProviderName, p.Name())

	p = BuildProvider(ctx, ProviderConfig{Provider: "qwen", APIKey: "x"}, testFields)
	assert.Equal(t, "qwen", p.Name())
}
