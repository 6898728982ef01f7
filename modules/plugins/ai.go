package plugins

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	rediscache "github.com/go-redis/cache"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/metrics"
	"github.com/sashabaranov/go-openai"
)

type AI struct{}

const (
	aiHistoryLength  = 10
	aiHistoryTTL     = time.Hour
	aiRequestTimeout = 60 * time.Second
	aiDefaultModel   = openai.GPT4oMini
)

// ErrAINotConfigured is returned by AIReply without an api key
var ErrAINotConfigured = errors.New("openai is not configured")

var (
	aiClient      *openai.Client
	aiClientMutex sync.Mutex

	// used when redis is not configured
	aiMemory      = make(map[string]aiMemoryEntry)
	aiMemoryMutex sync.Mutex
)

// aiMemoryEntry is the in memory history of a channel, it expires like the redis one
type aiMemoryEntry struct {
	history []AIExchange
	updated time.Time
}

// AIExchange is one prompt with the answer it got
type AIExchange struct {
	Prompt string
	Reply  string
}

func (a *AI) Commands() []string {
	return []string{
		"ask",
		"ai",
		"chatgpt",
	}
}

func (a *AI) Init(session *discordgo.Session) {
	getAIClient()
}

func (a *AI) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	content = strings.TrimSpace(content)
	if content == "" {
		helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
		return
	}

	if content == "reset" || content == "clear" {
		err := resetAIHistory(msg.ChannelID)
		helpers.Relax(err)
		helpers.SendApprove(msg, helpers.GetText("plugins.ai.reset"))
		return
	}

	session.ChannelTyping(msg.ChannelID)

	reply, err := AIReply(msg.ChannelID, content)
	if err == ErrAINotConfigured {
		helpers.SendWarn(msg, helpers.GetText("plugins.ai.not-configured"))
		return
	}
	helpers.Relax(err)

	_, err = helpers.SendMessage(msg.ChannelID, reply)
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
}

func getAIClient() *openai.Client {
	aiClientMutex.Lock()
	defer aiClientMutex.Unlock()

	if aiClient != nil {
		return aiClient
	}

	apiKey := helpers.ConfigString("openai.api_key", "")
	if apiKey == "" {
		return nil
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := helpers.ConfigString("openai.base_url", ""); baseURL != "" {
		config.BaseURL = baseURL
	}
	aiClient = openai.NewClientWithConfig(config)
	return aiClient
}

// AIReply answers $prompt in the conversation of $channelID and remembers the exchange
func AIReply(channelID, prompt string) (reply string, err error) {
	client := getAIClient()
	if client == nil {
		return "", ErrAINotConfigured
	}

	history, err := getAIHistory(channelID)
	if err != nil {
		helpers.RelaxLog(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), aiRequestTimeout)
	defer cancel()

	metrics.AIRequests.Add(1)
	response, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     helpers.ConfigString("openai.model", aiDefaultModel),
		Messages:  BuildAIMessages(helpers.ConfigString("openai.system_prompt", helpers.GetText("plugins.ai.system-prompt")), history, prompt),
		MaxTokens: helpers.ConfigInt("openai.max_tokens", 800),
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion failed")
	}
	if len(response.Choices) <= 0 {
		return "", errors.New("chat completion returned no choices")
	}

	reply = strings.TrimSpace(response.Choices[0].Message.Content)
	if reply == "" {
		reply = "…"
	}

	err = setAIHistory(channelID, TrimAIHistory(append(history, AIExchange{Prompt: prompt, Reply: reply}), aiHistoryLength))
	if err != nil {
		helpers.RelaxLog(err)
	}

	return reply, nil
}

// BuildAIMessages turns the remembered exchanges into a chat completion conversation
func BuildAIMessages(systemPrompt string, history []AIExchange, prompt string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)*2+2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, exchange := range history {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: exchange.Prompt},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: exchange.Reply},
		)
	}
	return append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
}

// TrimAIHistory keeps the newest $max exchanges
func TrimAIHistory(history []AIExchange, max int) []AIExchange {
	if len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

func aiHistoryKey(channelID string) string {
	return "pretend:ai:history:" + channelID
}

func getAIHistory(channelID string) (history []AIExchange, err error) {
	if !cache.HasRedisClient() {
		aiMemoryMutex.Lock()
		defer aiMemoryMutex.Unlock()
		pruneAIMemory(time.Now())
		return append([]AIExchange(nil), aiMemory[channelID].history...), nil
	}

	err = cache.GetRedisCacheCodec().Get(aiHistoryKey(channelID), &history)
	if err == rediscache.ErrCacheMiss {
		return nil, nil
	}
	return history, err
}

func setAIHistory(channelID string, history []AIExchange) error {
	if !cache.HasRedisClient() {
		aiMemoryMutex.Lock()
		pruneAIMemory(time.Now())
		aiMemory[channelID] = aiMemoryEntry{history: history, updated: time.Now()}
		aiMemoryMutex.Unlock()
		return nil
	}

	return cache.GetRedisCacheCodec().Set(&rediscache.Item{
		Key:        aiHistoryKey(channelID),
		Object:     history,
		Expiration: aiHistoryTTL,
	})
}

func resetAIHistory(channelID string) error {
	if !cache.HasRedisClient() {
		aiMemoryMutex.Lock()
		delete(aiMemory, channelID)
		aiMemoryMutex.Unlock()
		return nil
	}

	err := cache.GetRedisCacheCodec().Delete(aiHistoryKey(channelID))
	if err == rediscache.ErrCacheMiss {
		return nil
	}
	return err
}

// pruneAIMemory drops histories not updated within aiHistoryTTL, aiMemoryMutex must be held
func pruneAIMemory(now time.Time) {
	for channelID, entry := range aiMemory {
		if now.Sub(entry.updated) > aiHistoryTTL {
			delete(aiMemory, channelID)
		}
	}
}
