package handler

import (
	"strings"
	"sync"
	"testing"
	"time"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/repository"
	"retail-dashboard/internal/service"
	"retail-dashboard/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var testNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

const (
	adminChatID  int64 = 1000
	sellerChatID int64 = 2000
	guestChatID  int64 = 3000
)

// fakeBot запоминает все, что бот пытался отправить
type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

// texts тексты обычных сообщений
func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string
	for _, c := range b.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (b *fakeBot) last() string {
	texts := b.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (b *fakeBot) documents() []tgbotapi.DocumentConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []tgbotapi.DocumentConfig
	for _, c := range b.sent {
		if doc, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, doc)
		}
	}
	return out
}

type testEnv struct {
	handler *Handler
	bot     *fakeBot
	svc     Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewMemoryKVRepository()
	clock := func() time.Time { return testNow }

	ds := store.NewDataStore(repo, store.DataStoreConfig{Key: "t-analytics-data", DefaultStore: "Магазин"}, nil)
	ds.SetClock(clock)
	if _, err := ds.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	ledger := store.NewDocument(store.New(repo, "t-achievements", nil), func() *models.AchievementLedger {
		return models.NewAchievementLedger(models.AchievementSettings{})
	}, nil)

	employees := service.NewEmployeeService(ds, "Магазин")
	employees.SetClock(clock)
	revenue := service.NewRevenueService(ds)
	revenue.SetClock(clock)
	dashboard := service.NewDashboardService(ds)
	achievements := service.NewAchievementService(ledger, models.AchievementSettings{}, nil)
	achievements.SetClock(clock)
	export := service.NewExportService(ds, dashboard)
	export.SetClock(clock)

	svc := Services{
		Employees:    employees,
		Revenue:      revenue,
		Plans:        service.NewPlanService(ds),
		Schedules:    service.NewScheduleService(ds),
		Dashboard:    dashboard,
		Achievements: achievements,
		Data:         service.NewDataService(ds),
		Export:       export,
	}

	for _, in := range []service.EmployeeInput{
		{EmployeeID: "001", Name: "Иванова Анна", Telegram: "@anna", Role: models.RoleStaff},
		{EmployeeID: "002", Name: "Петров Олег", Telegram: "oleg", Role: models.RoleAssistantManager},
	} {
		if _, err := employees.AddEmployee(in); err != nil {
			t.Fatalf("AddEmployee(%s) error: %v", in.EmployeeID, err)
		}
	}

	bot := &fakeBot{}
	h := NewHandler(bot, svc, &config.Config{BaseAdminChatID: adminChatID})
	h.SetClock(clock)

	return &testEnv{handler: h, bot: bot, svc: svc}
}

// command собирает сообщение с командой так же, как его присылает Telegram
func command(chatID int64, username, text string) *tgbotapi.Message {
	name := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, UserName: username},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(name)},
		},
	}
}

func (e *testEnv) run(chatID int64, username, text string) string {
	e.handler.handleMessage(command(chatID, username, text))
	return e.bot.last()
}

func TestHandler_SaveRevenue(t *testing.T) {
	env := newTestEnv(t)

	reply := env.run(sellerChatID, "Anna", "/revenue 5000 3000 2000")
	if !strings.Contains(reply, "сохранена") {
		t.Fatalf("reply = %q, want confirmation", reply)
	}

	totals, err := env.svc.Revenue.GetDailyRevenue("2024-10-15")
	if err != nil {
		t.Fatalf("GetDailyRevenue() error: %v", err)
	}
	if totals.Focus != 5000 || totals.SBP != 3000 || totals.Cash != 2000 {
		t.Errorf("totals = %+v", totals)
	}
}

func TestHandler_SaveRevenueWithDate(t *testing.T) {
	env := newTestEnv(t)

	env.run(sellerChatID, "anna", "/revenue 100 200 300 01.10.2024")

	totals, err := env.svc.Revenue.GetDailyRevenue("2024-10-01")
	if err != nil {
		t.Fatalf("GetDailyRevenue() error: %v", err)
	}
	if totals.Total() != 600 {
		t.Errorf("Total() = %d, want 600", totals.Total())
	}
}

func TestHandler_SaveRevenueRejected(t *testing.T) {
	tests := []struct {
		name     string
		username string
		text     string
		want     string
	}{
		{"не привязан", "stranger", "/revenue 1 2 3", "не привязаны"},
		{"мало аргументов", "anna", "/revenue 1 2", "Формат"},
		{"плохая дата", "anna", "/revenue 1 2 3 вчера", "Неверная дата"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			reply := env.run(guestChatID, tt.username, tt.text)
			if !strings.Contains(reply, tt.want) {
				t.Errorf("reply = %q, want substring %q", reply, tt.want)
			}
		})
	}
}

func TestHandler_Today(t *testing.T) {
	env := newTestEnv(t)

	env.run(sellerChatID, "anna", "/revenue 5000 3000 2000")
	reply := env.run(sellerChatID, "anna", "/today")

	if !strings.Contains(reply, "2024-10-15") {
		t.Errorf("reply = %q, want date", reply)
	}
	if !strings.Contains(reply, "10 000 ₽") {
		t.Errorf("reply = %q, want revenue total", reply)
	}
	if !strings.Contains(reply, "План на этот день не задан") {
		t.Errorf("reply = %q, want missing plan notice", reply)
	}
}

func TestHandler_SavePlanAccess(t *testing.T) {
	env := newTestEnv(t)

	reply := env.run(sellerChatID, "anna", "/plan 100000 30000 10000")
	if !strings.Contains(reply, "Доступ запрещен") {
		t.Errorf("staff reply = %q, want access denied", reply)
	}

	env.run(sellerChatID+1, "oleg", "/plan 100000 30000 10000")
	plan, err := env.svc.Plans.GetDailyPlan("2024-10-15")
	if err != nil {
		t.Fatalf("GetDailyPlan() error: %v", err)
	}
	if plan == nil || plan.Revenue != 100000 {
		t.Fatalf("plan = %+v, want revenue 100000", plan)
	}
}

func TestHandler_Rating(t *testing.T) {
	env := newTestEnv(t)

	env.run(sellerChatID, "anna", "/revenue 1000 0 0")
	env.run(sellerChatID+1, "oleg", "/revenue 3000 0 0")

	reply := env.run(sellerChatID, "anna", "/rating")
	first := strings.Index(reply, "Петров Олег")
	second := strings.Index(reply, "Иванова Анна")
	if first < 0 || second < 0 || first > second {
		t.Errorf("reply = %q, want Петров before Иванова", reply)
	}
}

func TestHandler_AdminCommands(t *testing.T) {
	env := newTestEnv(t)

	reply := env.run(sellerChatID, "anna", "/employees")
	if !strings.Contains(reply, "Доступ запрещен") {
		t.Errorf("staff /employees = %q, want access denied", reply)
	}

	reply = env.run(adminChatID, "", "/employees")
	if !strings.Contains(reply, "Иванова Анна") {
		t.Errorf("admin /employees = %q, want employee list", reply)
	}

	env.run(adminChatID, "", "/export")
	env.run(adminChatID, "", "/report")

	docs := env.bot.documents()
	if len(docs) != 2 {
		t.Fatalf("documents sent = %d, want 2", len(docs))
	}
	if file, ok := docs[0].File.(tgbotapi.FileBytes); !ok || !strings.HasSuffix(file.Name, ".json") {
		t.Errorf("first document = %#v, want json export", docs[0].File)
	}
	if file, ok := docs[1].File.(tgbotapi.FileBytes); !ok || file.Name != "report-2024-10.xlsx" || len(file.Bytes) == 0 {
		t.Errorf("second document = %#v, want xlsx report", docs[1].File)
	}
}

func TestHandler_ClearDataCallback(t *testing.T) {
	env := newTestEnv(t)

	env.handler.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{UserName: "anna"},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: sellerChatID}},
		Data:    "confirm_clear",
	})
	if employees, _ := env.svc.Employees.GetEmployees(); len(employees) != 2 {
		t.Fatalf("staff cleared data: %d employees left", len(employees))
	}

	env.handler.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:      "cb-2",
		From:    &tgbotapi.User{},
		Message: &tgbotapi.Message{MessageID: 8, Chat: &tgbotapi.Chat{ID: adminChatID}},
		Data:    "confirm_clear",
	})
	if employees, _ := env.svc.Employees.GetEmployees(); len(employees) != 0 {
		t.Errorf("employees after clear = %d, want 0", len(employees))
	}
	if !strings.Contains(env.bot.last(), "Данные очищены") {
		t.Errorf("reply = %q", env.bot.last())
	}
}

func TestHandler_UnknownAndPlainText(t *testing.T) {
	env := newTestEnv(t)

	if reply := env.run(sellerChatID, "anna", "/dance"); !strings.Contains(reply, "Неизвестная команда") {
		t.Errorf("unknown command reply = %q", reply)
	}

	env.handler.handleMessage(&tgbotapi.Message{Text: "привет", Chat: &tgbotapi.Chat{ID: sellerChatID}})
	if reply := env.bot.last(); !strings.Contains(reply, "только команды") {
		t.Errorf("plain text reply = %q", reply)
	}
}

func TestHandler_HelpShowsAdminSection(t *testing.T) {
	env := newTestEnv(t)

	if reply := env.run(sellerChatID, "anna", "/help"); strings.Contains(reply, "Администратор") {
		t.Errorf("staff help shows admin section: %q", reply)
	}
	if reply := env.run(adminChatID, "", "/help"); !strings.Contains(reply, "/cleardata") {
		t.Errorf("admin help = %q, want admin commands", reply)
	}
}

func TestHandler_ParseDateArg(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"", "2024-10-15", false},
		{"2024-10-01", "2024-10-01", false},
		{"01.10.2024", "2024-10-01", false},
		{"1.10.2024", "2024-10-01", false},
		{"31.02.2024", "", true},
		{"завтра", "", true},
	}

	for _, tt := range tests {
		got, err := env.handler.parseDateArg(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDateArg(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDateArg(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}
