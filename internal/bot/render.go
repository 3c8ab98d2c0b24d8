package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/orderbot/internal/catalog"
	"github.com/angelmondragon/orderbot/internal/notifications"
	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/session"
	"github.com/angelmondragon/orderbot/internal/stats"
	"github.com/angelmondragon/orderbot/pkg/types"
)

const (
	timestampLayout = "Jan 02, 2006 – 03:04 PM MST"
	listSeparator   = "────────────"
	noValue         = "—"
)

// Images are the static pictures attached to informational messages.
type Images struct {
	Confirmation string
	Instructions string
	FAQ          string
	MustRead     string
}

// DefaultImages returns the stock pictures.
func DefaultImages() Images {
	return Images{
		Confirmation: "https://ibb.co/Y4tTxcHG",
		Instructions: "https://ibb.co/PSZ5py2",
		FAQ:          "https://ibb.co/ZtZv3Yy",
		MustRead:     "https://ibb.co/S7Z9DGfX",
	}
}

func button(text, data string) notifications.Button {
	return notifications.Button{Text: text, Data: data}
}

func row(buttons ...notifications.Button) []notifications.Button { return buttons }

func viewCartButton(count int) notifications.Button {
	return button(fmt.Sprintf("🛒 View Cart (%d)", count), tokenViewCart)
}

var (
	backRow        = row(button("⬅️ Back", tokenBack))
	consoleBackRow = row(button("⬅️ Back to Main Menu", tokenAdminBack))
)

func mainMenu(cat *catalog.Catalog, count int) [][]notifications.Button {
	var rows [][]notifications.Button
	for _, name := range cat.Categories() {
		rows = append(rows, row(button(name, tokenCategory+":"+name)))
	}
	return append(rows, row(viewCartButton(count), button("✅ Place Order", tokenConfirmOrder)))
}

func categoryMenu(products []string, count int) [][]notifications.Button {
	rows := make([][]notifications.Button, 0, len(products)+1)
	for _, name := range products {
		rows = append(rows, row(button(name, tokenItem+":"+name)))
	}
	return append(rows, row(button("⬅️ Back", tokenBack), viewCartButton(count)))
}

func priceMenu(product string, options []catalog.PriceOption, count int) [][]notifications.Button {
	rows := make([][]notifications.Button, 0, len(options)+1)
	for _, opt := range options {
		data := strings.Join([]string{tokenAdd, product, opt.Label, strconv.Itoa(opt.Price)}, ":")
		rows = append(rows, row(button(fmt.Sprintf("%s - $%d", opt.Label, opt.Price), data)))
	}
	return append(rows, row(button("⬅️ Back", tokenBack), viewCartButton(count)))
}

func cartMenu() [][]notifications.Button {
	return [][]notifications.Button{
		row(button("🗑️ Clear Cart", tokenClearCart)),
		row(button("⬅️ Back to Menu", tokenBack)),
	}
}

func consoleMenu() [][]notifications.Button {
	return [][]notifications.Button{
		row(button("📦 Current Orders", tokenAdminCurrent), button("✅ Completed Orders", tokenAdminCompleted)),
		row(button("📊 View Stats", tokenAdminStats), button("💳 Accept Payment", tokenAdminAccept)),
		row(button("🚚 Ship Order", tokenAdminShip)),
		row(button("🗑️ Delete Order", tokenAdminDelete), button("🔄 Reset User", tokenAdminReset)),
		row(button("⬅️ Back to Main Menu", tokenAdminBack)),
	}
}

func consoleMessage() notifications.Message {
	return markdown("🛠️ *Admin Console*\nChoose an action below:", consoleMenu()...)
}

func consoleBackMessage() notifications.Message {
	return plain("⬅️ Back to Main Menu", consoleBackRow)
}

func cartText(cart types.Cart) string {
	return "🛒 *Your Cart:*\n\n" + cart.Text() + fmt.Sprintf("\n\n💰 *Total:* $%d", cart.Total())
}

var stagePrompts = map[session.Stage]string{
	session.StageFirstName:    "📦 Please enter your *first name*:",
	session.StageLastName:     "📝 Enter your *last name*:",
	session.StageCity:         "🏙️ Enter your *town/city*:",
	session.StageState:        "🌎 Enter your *state*:",
	session.StageZip:          "🔢 Enter your *ZIP code*:",
	session.StageStreet:       "🏠 Enter your *full street address (apt/unit if any)*:",
	session.StageReturnNumber: "📬 Please enter your *Return #* (required):",
}

func addressBlock(a types.Address) string {
	return "📍 *Shipping Address:*\n" + strings.Join(a.Lines(), "\n")
}

func orderSummary(o orders.Order) string {
	return fmt.Sprintf("✅ *Order #%s Complete!*\n\n%s\n\n💰 *Total:* $%d\n🔁 *Return #:* %s\n\n%s",
		o.ID, o.ItemsText, o.Total, o.Address.ReturnNumberOr(noValue), addressBlock(o.Address))
}

const paymentInstructions = "🧾 *Thank you for your order!*\n" +
	"Please follow the instructions in the image to complete your payment.\n\n" +
	"💬 If you made a mistake or need help with your order, type /requesthelp <your message> to contact the admin."

func newOrderAlert(o orders.Order, loc *time.Location) string {
	username := o.Username
	if username == "" {
		username = "no username"
	}
	return fmt.Sprintf("📦 *New Order #%s*\n🔁 Return #: %s\n👤 Buyer: %s (%s)\n🆔 ID: %d\n\n%s\n💰 *Total:* $%d\n\n%s\n🕒 %s\n⌛ Awaiting payment.",
		o.ID, o.Address.ReturnNumberOr(noValue), o.DisplayName, username, o.UserID,
		o.ItemsText, o.Total, addressBlock(o.Address), formatTimestamp(o.CreatedAt, loc))
}

func shippedNotice(o orders.Order, loc *time.Location) string {
	return fmt.Sprintf("✅ *Order Shipped*\n#%s | 🕒 %s\n👤 Buyer: %s (ID: %d)\n🔁 Return #: %s\n%s\n💰 Total: $%d\n🚚 Tracking: `%s`",
		o.ID, formatTimestamp(completedAt(o), loc), o.DisplayName, o.UserID,
		o.Address.ReturnNumberOr(noValue), o.ItemsText, o.Total, o.Tracking)
}

func helpAlert(username string, userID int64, latest *orders.Order, message string) string {
	if username == "" {
		username = "no_username"
	}
	orderID, returnNumber := "N/A", noValue
	if latest != nil {
		orderID = "#" + latest.ID
		returnNumber = latest.Address.ReturnNumberOr(noValue)
	}
	return fmt.Sprintf("🚨 *Help Request*\n👤 From: @%s (%d)\n🧾 Order ID: %s\n🔁 Return #: %s\n💬 Message: %s",
		username, userID, orderID, returnNumber, message)
}

// orderList renders orders newest first, as given, and splits the result
// into messages no longer than chunkLen.
func orderList(title string, list []orders.Order, loc *time.Location, chunkLen int) []notifications.Message {
	if len(list) == 0 {
		return []notifications.Message{markdown(title + "\n\nNo orders found.")}
	}
	blocks := make([]string, 0, len(list))
	for _, o := range list {
		blocks = append(blocks, fmt.Sprintf("%s\n#%s  |  🕒 %s\n🔁 Return #: %s\n👤 %s  |  🆔 %d\n%s\n💰 Total: $%d",
			listSeparator, o.ID, formatTimestamp(o.CreatedAt, loc), o.Address.ReturnNumberOr(noValue),
			o.DisplayName, o.UserID, o.ItemsText, o.Total))
	}
	full := title + "\n\n" + strings.Join(blocks, "\n\n")
	chunks := notifications.Chunk(full, chunkLen)
	out := make([]notifications.Message, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, markdown(c))
	}
	return out
}

func statsReport(s stats.Summary, loc *time.Location) string {
	return fmt.Sprintf("📊 *Admin Stats Report*\n────────────────────\n🧾 Total Orders: %d\n✅ Completed Orders: %d\n⌛ Pending Orders: %d\n💰 Total Revenue (All Time): $%d\n💵 Revenue (Today): $%d\n🕒 Last Update: %s",
		s.TotalOrders, s.CompletedCount, s.PendingCount, s.TotalRevenue, s.TodayRevenue,
		formatTimestamp(s.GeneratedAt, loc))
}

func formatTarget(format string, target int64) string {
	return fmt.Sprintf(format, target)
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(timestampLayout)
}

func completedAt(o orders.Order) time.Time {
	if o.CompletedAt != nil {
		return *o.CompletedAt
	}
	return o.CreatedAt
}

// waitHours renders a remaining cooldown. Less than a full hour shows as
// "<1" rather than "0".
func waitHours(hours int) string {
	if hours < 1 {
		return "<1"
	}
	return strconv.Itoa(hours)
}
