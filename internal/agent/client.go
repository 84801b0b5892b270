// Package agent is the conversational layer: an OpenAI responses-API
// loop with function tools bound to the hub's aggregators and the notes
// vault.
package agent

import (
	"context"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
)

// Client wraps the OpenAI responses API with a fixed model.
type Client struct {
	c     *openai.Client
	model string
}

// NewClient builds the model client. An empty apiKey falls back to
// OPENAI_API_KEY; an empty key after that still yields a client, which
// fails on first use.
func NewClient(apiKey, model string) *Client {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{c: &c, model: model}
}

type responseInput struct {
	SystemPrompt string
	History      []responses.ResponseInputItemUnionParam
	Tools        []openai.FunctionDefinitionParam
}

type responseOutput struct {
	Answer    string
	ToolCalls []responses.ResponseFunctionToolCall
}

func (cl *Client) getResponse(ctx context.Context, req *responseInput) (*responseOutput, error) {
	params := responses.ResponseNewParams{
		Model:        cl.model,
		Instructions: param.NewOpt(req.SystemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: req.History,
		},
		Tools: toToolParams(req.Tools),
	}

	res, err := cl.c.Responses.New(ctx, params)
	if err != nil {
		return nil, err
	}

	out := &responseOutput{}
	for _, item := range res.Output {
		if item.Type == "function_call" {
			out.ToolCalls = append(out.ToolCalls, item.AsFunctionCall())
		}
		if item.Type == "message" {
			msg := item.AsMessage()
			if len(msg.Content) > 0 {
				out.Answer = msg.Content[0].Text
			}
		}
	}
	return out, nil
}

func toToolParams(tools []openai.FunctionDefinitionParam) []responses.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	params := make([]responses.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		params = append(params, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
				Strict:      t.Strict,
			},
		})
	}
	return params
}

func userMessage(msg string) responses.ResponseInputItemUnionParam {
	return responses.ResponseInputItemUnionParam{
		OfMessage: &responses.EasyInputMessageParam{
			Role: responses.EasyInputMessageRoleUser,
			Type: responses.EasyInputMessageTypeMessage,
			Content: responses.EasyInputMessageContentUnionParam{
				OfString: param.NewOpt(msg),
			},
		},
	}
}

func assistantMessage(msg string) responses.ResponseInputItemUnionParam {
	return responses.ResponseInputItemUnionParam{
		OfMessage: &responses.EasyInputMessageParam{
			Role: responses.EasyInputMessageRoleAssistant,
			Type: responses.EasyInputMessageTypeMessage,
			Content: responses.EasyInputMessageContentUnionParam{
				OfString: param.NewOpt(msg),
			},
		},
	}
}
