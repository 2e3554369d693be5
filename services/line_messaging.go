package services

import (
	"fmt"
	"log"

	"github.com/line/line-bot-sdk-go/linebot"
)

// LineMessagingService wraps the LINE Messaging API client
type LineMessagingService struct {
	Bot *linebot.Client
}

// NewLineMessagingService returns a disabled service when credentials are missing.
func NewLineMessagingService(channelSecret, channelToken string) *LineMessagingService {
	if channelSecret == "" || channelToken == "" {
		log.Println("⚠️ LINE Messaging API disabled: missing LINE_CHANNEL_SECRET or LINE_CHANNEL_ACCESS_TOKEN")
		return &LineMessagingService{Bot: nil}
	}

	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		log.Printf("❌ Cannot create LINE bot client: %v", err)
		return &LineMessagingService{Bot: nil}
	}

	return &LineMessagingService{Bot: bot}
}

func (s *LineMessagingService) Enabled() bool {
	return s != nil && s.Bot != nil
}

// SendText pushes a text message to a LINE user or group id
func (s *LineMessagingService) SendText(to string, message string) error {
	if !s.Enabled() {
		return fmt.Errorf("LINE Bot client is not initialized")
	}

	_, err := s.Bot.PushMessage(to, linebot.NewTextMessage(message)).Do()
	if err != nil {
		return fmt.Errorf("LINE Messaging API failed: %v", err)
	}
	return nil
}

// Reply answers a webhook event using its reply token
func (s *LineMessagingService) Reply(replyToken string, message string) error {
	if !s.Enabled() {
		return fmt.Errorf("LINE Bot client is not initialized")
	}
	_, err := s.Bot.ReplyMessage(replyToken, linebot.NewTextMessage(message)).Do()
	return err
}
