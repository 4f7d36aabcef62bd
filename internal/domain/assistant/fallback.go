package assistant

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	apperrors "github.com/yanqian/contract-assistant/pkg/errors"
)

// MockModel is reported as the model name of every knowledge base answer.
const MockModel = "local_knowledge_base"

const (
	mockNotice        = "💡 模拟模式答案：\n"
	unavailableFormat = "⚠️ AI服务暂时不可用 (%s...)\n\n模拟答案：\n"
	answerSuffix      = "\n\n（如需实时AI回答，请配置有效的AI_API_KEY）"
	failureLabel      = "AI服务调用失败: "
	failureDetailMax  = 50
)

// Topic pairs a match key with its canned explanation.
type Topic struct {
	Key         string
	Explanation string
}

// Topics are matched in order; the first key found in the question wins.
var defaultTopics = []Topic{
	{Key: "智能合约", Explanation: "智能合约是部署在区块链上的自执行代码，当预定条件满足时自动执行，无需中介。特点：去中心化、透明、不可篡改。"},
	{Key: "ERC20", Explanation: "ERC20是以太坊上同质化代币的标准接口，包含transfer、balanceOf等基本函数。"},
	{Key: "安全风险", Explanation: "常见风险包括：重入攻击、整数溢出、访问控制缺陷。防范措施：使用检查-效果-交互模式、进行代码审计。"},
	{Key: "Solidity", Explanation: "Solidity是用于编写以太坊智能合约的主流面向对象语言，语法类似JavaScript。"},
}

var defaultGenericAnswers = []string{
	"智能合约通过代码定义和执行合约条款，实现去信任化的自动化交易。",
	"编写安全合约需注意：最小权限原则、输入验证、使用审计过的库。",
}

// KnowledgeBase answers questions without a model. It never fails.
type KnowledgeBase struct {
	topics  []Topic
	generic []string
	latency time.Duration
	pick    func(n int) int
}

// NewKnowledgeBase builds the responder with the built-in topic table. latency
// simulates model think time before each answer.
func NewKnowledgeBase(latency time.Duration) *KnowledgeBase {
	return &KnowledgeBase{
		topics:  defaultTopics,
		generic: defaultGenericAnswers,
		latency: latency,
		pick:    rand.IntN,
	}
}

// Answer returns a canned answer. A non-nil upstreamErr switches the notice
// prefix to an unavailability message carrying a truncated diagnostic.
func (kb *KnowledgeBase) Answer(ctx context.Context, question string, upstreamErr error) AnswerResult {
	kb.wait(ctx)

	prefix := mockNotice
	if upstreamErr != nil {
		detail := apperrors.Truncate(failureLabel+upstreamErr.Error(), failureDetailMax)
		prefix = fmt.Sprintf(unavailableFormat, detail)
	}

	return AnswerResult{
		Answer: prefix + kb.lookup(question) + answerSuffix,
		Model:  MockModel,
		Source: SourceMock,
	}
}

// Match reports the explanation for the first topic contained in question.
func (kb *KnowledgeBase) Match(question string) (string, bool) {
	lowered := strings.ToLower(question)
	for _, topic := range kb.topics {
		if strings.Contains(lowered, strings.ToLower(topic.Key)) {
			return topic.Explanation, true
		}
	}
	return "", false
}

func (kb *KnowledgeBase) lookup(question string) string {
	if explanation, ok := kb.Match(question); ok {
		return explanation
	}
	return kb.generic[kb.pick(len(kb.generic))]
}

func (kb *KnowledgeBase) wait(ctx context.Context) {
	if kb.latency <= 0 {
		return
	}
	timer := time.NewTimer(kb.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
