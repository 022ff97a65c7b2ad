package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-erp-agent/internal/config"
	"go-erp-agent/internal/metrics"
	"go-erp-agent/internal/models"
	"go-erp-agent/internal/services"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrDisabled is returned when no Gemini API key is configured.
var ErrDisabled = errors.New("AI assistant is not configured")

const maxToolRounds = 5

// chatSession is the part of *genai.ChatSession the loop needs.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Agent answers inventory questions and runs its tools through the services.
type Agent struct {
	svc     *services.Services
	cfg     config.AIConfig
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAgent(svc *services.Services, cfg config.AIConfig, log *zap.Logger, m *metrics.Metrics) *Agent {
	return &Agent{svc: svc, cfg: cfg, log: log, metrics: m, now: time.Now}
}

func (a *Agent) Enabled() bool {
	return a.cfg.GeminiAPIKey != ""
}

func (a *Agent) systemPrompt(userMessage string) string {
	today := a.now().Format(models.DateLayout)
	return fmt.Sprintf(`SYSTEM: Today is %s. You are the inventory assistant of an ERP system.

	RULES:
	1. UPDATE: If a user asks to update a product by NAME (e.g. "Update Sesame Seeds price"), do NOT ask for the ID.
	   - Call 'update_product_price' with product_name, or call 'check_inventory' first when the name is ambiguous and pass product_id.

	2. READ: If a user asks for PRICE, COST, STOCK or DETAILS of a product, call 'check_inventory' and read the result.

	3. STOCK: If the user asks what needs reordering, use 'low_stock_report'.

	4. SALES: If the user asks for sales, revenue or profit in a period, use 'get_sales_report'.

	USER: %s`, today, userMessage)
}

func tools() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_inventory",
				Description: "Get the inventory list. Use this to find ANY product details like ID, code, name, prices or stock. Optionally filter by a search term.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"search": {Type: genai.TypeString, Description: "Part of a product code, name or category"},
					},
				},
			},
			{
				Name:        "low_stock_report",
				Description: "List products at or below their reorder level.",
			},
			{
				Name:        "update_product_price",
				Description: "Update the sale price of a product by its ID, or by its name or code when the ID is unknown",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_id":   {Type: genai.TypeString, Description: "ID of the product"},
						"product_name": {Type: genai.TypeString, Description: "Name or code of the product, used when product_id is empty"},
						"new_price":    {Type: genai.TypeNumber, Description: "New sale price"},
					},
					Required: []string{"new_price"},
				},
			},
			{
				Name:        "get_sales_report",
				Description: "Get sales revenue, profit and order count for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
		},
	}}
}

// Ask runs one conversation on behalf of actor and returns the model's answer.
func (a *Agent) Ask(ctx context.Context, actor services.Actor, userMessage string) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.cfg.GeminiAPIKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.cfg.Model)
	model.Tools = tools()

	return a.converse(ctx, model.StartChat(), actor, userMessage)
}

// converse sends the prompt and keeps answering tool calls until the model
// replies with text or the round limit is reached.
func (a *Agent) converse(ctx context.Context, session chatSession, actor services.Actor, userMessage string) (string, error) {
	resp, err := session.SendMessage(ctx, genai.Text(a.systemPrompt(userMessage)))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}
		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			replies = append(replies, genai.FunctionResponse{
				Name:     call.Name,
				Response: a.execute(ctx, actor, call),
			})
		}
		resp, err = session.SendMessage(ctx, replies...)
		if err != nil {
			return "", err
		}
	}
	a.log.Warn("assistant stopped after too many tool rounds", zap.Int("rounds", maxToolRounds))
	return printResponse(resp), nil
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, funcCall)
		}
	}
	return calls
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I completed the action."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
