// internal/services/llm_service_test.go
package services

import (
	"context"
	"testing"
)

func newTestLLMService(provider *fakeProvider) *LLMService {
	svc := NewEmptyLLMService()
	svc.SetProvider(provider, "fake")
	return svc
}

// TestCompletionCacheDeterministicOnly 只有temperature为0的请求才使用缓存
func TestCompletionCacheDeterministicOnly(t *testing.T) {
	provider := &fakeProvider{responses: []string{"响应一", "响应二"}}
	svc := newTestLLMService(provider)

	req := ChatCompletionRequest{
		Messages: []ChatCompletionMessage{
			{Role: RoleUser, Content: "确定性请求"},
		},
		Temperature: 0,
	}

	first, err := svc.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if provider.calls != 1 {
		t.Errorf("确定性请求应命中缓存: got %d 次调用", provider.calls)
	}
	if first.Choices[0].Message.Content != second.Choices[0].Message.Content {
		t.Error("缓存命中时两次结果应相同")
	}
}

// TestCompletionCacheSkipsCreativeRequests temperature>0的请求每次都调用提供者
func TestCompletionCacheSkipsCreativeRequests(t *testing.T) {
	provider := &fakeProvider{responses: []string{"响应一", "响应二"}}
	svc := newTestLLMService(provider)

	req := ChatCompletionRequest{
		Messages: []ChatCompletionMessage{
			{Role: RoleUser, Content: "创意请求"},
		},
		Temperature: 0.9,
	}

	first, err := svc.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if provider.calls != 2 {
		t.Errorf("创意请求不应使用缓存: got %d 次调用", provider.calls)
	}
	if first.Choices[0].Message.Content == second.Choices[0].Message.Content {
		t.Error("两次创意请求应返回不同的提供者结果")
	}
}

// TestCreateChatCompletionWithoutProvider 未配置提供者时报错
func TestCreateChatCompletionWithoutProvider(t *testing.T) {
	svc := NewEmptyLLMService()

	_, err := svc.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Messages: []ChatCompletionMessage{{Role: RoleUser, Content: "x"}},
	})
	if err == nil {
		t.Error("未配置提供者应返回错误")
	}
}
