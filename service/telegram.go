package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alsayerclinic/clinic-api/config"
	"github.com/alsayerclinic/clinic-api/model"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier sends patient notifications and the daily summary to a
// Telegram chat through the Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// NewTelegramNotifier builds a notifier from the loaded configuration.
// Missing credentials produce a disabled notifier; callers check Enabled.
func NewTelegramNotifier(cfg *config.Config) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: cfg.TelegramBotToken,
		chatID:   cfg.TelegramChatID,
		apiBase:  telegramAPIBase,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetAPIBase overrides the Bot API base URL. Used in tests.
func (n *TelegramNotifier) SetAPIBase(base string) {
	n.apiBase = base
}

// Enabled reports whether bot credentials are configured.
func (n *TelegramNotifier) Enabled() bool {
	return n.botToken != "" && n.chatID != ""
}

// NotifyPatient sends the per-mutation chat message.
func (n *TelegramNotifier) NotifyPatient(ctx context.Context, action string, patient model.Patient) error {
	if !n.Enabled() {
		return nil
	}
	return n.sendMessage(ctx, formatPatientMessage(action, patient))
}

// SendDailySummary sends the end-of-day aggregate message.
func (n *TelegramNotifier) SendDailySummary(ctx context.Context, count, totalAmount int64) error {
	if !n.Enabled() {
		return nil
	}

	var b strings.Builder
	b.WriteString("📊 *ملخص اليوم*\n\n")
	b.WriteString(fmt.Sprintf("📅 %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("👥 *عدد المراجعين اليوم:* %d\n", count))
	b.WriteString(fmt.Sprintf("💰 *إجمالي المبالغ:* %d د.ع\n\n", totalAmount))
	b.WriteString("🏥 مركز اضواء الساير للعلاج الطبيعي والمساند الطبية")

	return n.sendMessage(ctx, b.String())
}

func (n *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API responded with status %d: %s", resp.StatusCode, body)
	}
	return nil
}

func actionArabic(action string) string {
	switch action {
	case "created":
		return "تسجيل مريض جديد"
	case "updated":
		return "تحديث بيانات مريض"
	default:
		return "حذف سجل مريض"
	}
}

func careTypeArabic(careType string) string {
	switch careType {
	case model.CareTypeHomeExercises:
		return "تمارين منزلية"
	case model.CareTypeSessions:
		return "جلسات علاجية"
	default:
		return ""
	}
}

func formatPatientMessage(action string, p model.Patient) string {
	remaining := p.TotalAmount - p.TotalReceived

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 *%s*\n\n", actionArabic(action)))
	b.WriteString(fmt.Sprintf("👤 *الاسم:* %s\n", p.PatientName))
	b.WriteString(fmt.Sprintf("🔢 *العمر:* %d\n", p.Age))

	if p.Residence != "" {
		b.WriteString(fmt.Sprintf("🏠 *السكن:* %s\n", p.Residence))
	}
	if p.Phone != "" {
		b.WriteString(fmt.Sprintf("📱 *الهاتف:* %s\n", p.Phone))
	}
	if p.DoctorName != "" {
		b.WriteString(fmt.Sprintf("👨‍⚕️ *الطبيب:* %s\n", p.DoctorName))
	}
	if p.Diagnosis != "" {
		b.WriteString(fmt.Sprintf("🏥 *التشخيص:* %s\n", p.Diagnosis))
	}

	if p.HasSurgery {
		b.WriteString("✂️ *عملية:* نعم")
		if p.SurgeryType != "" {
			b.WriteString(fmt.Sprintf(" (%s)", p.SurgeryType))
		}
		b.WriteString("\n")
	}

	if p.CareType != "" {
		b.WriteString(fmt.Sprintf("💪 *نوع الرعاية:* %s\n", careTypeArabic(p.CareType)))
		if p.SessionCount > 0 {
			b.WriteString(fmt.Sprintf("📊 *عدد الجلسات:* %d", p.SessionCount))
			if p.SessionPrice > 0 {
				b.WriteString(fmt.Sprintf(" × %d د.ع", p.SessionPrice))
			}
			b.WriteString("\n")
		}
	}

	if p.AidType != "" {
		b.WriteString(fmt.Sprintf("🩹 *المساند الطبية:* %s", p.AidType))
		if p.AidPrice > 0 {
			b.WriteString(fmt.Sprintf(" - %d د.ع", p.AidPrice))
		}
		b.WriteString("\n")
	}

	if p.HasDiet && p.DietPlan != "" {
		b.WriteString(fmt.Sprintf("🥗 *النظام الغذائي:* %s\n", p.DietPlan))
	}

	if p.HasOtherServices && p.OtherServiceType != "" {
		b.WriteString(fmt.Sprintf("🔧 *خدمات أخرى:* %s", p.OtherServiceType))
		if p.OtherServicePrice > 0 {
			b.WriteString(fmt.Sprintf(" - %d د.ع", p.OtherServicePrice))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n💰 *المالية:*\n")
	b.WriteString(fmt.Sprintf("   الإجمالي: %d د.ع\n", p.TotalAmount))
	b.WriteString(fmt.Sprintf("   المستلم: %d د.ع\n", p.TotalReceived))
	b.WriteString(fmt.Sprintf("   المتبقي: %d د.ع\n", remaining))

	return b.String()
}
