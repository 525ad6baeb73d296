package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#C0392B")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0a84ff"))

	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#30d158"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

const maxTranscript = 40

// Model defines the application state
type Model struct {
	mainMenu    list.Model
	menuTable   table.Model
	orderList   list.Model
	orderDetail Order
	textInput   textinput.Model
	spinner     spinner.Model
	client      *ApiClient
	transcript  []string
	footer      string
	loading     bool
	currentView string
	error       string
}

// item represents a list item
type item struct {
	title, desc string
}

func (i item) FilterValue() string { return i.title }
func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }

func initialModel(userID uint) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := []list.Item{
		item{title: "Chat", desc: "Order in plain English or Arabic"},
		item{title: "Menu", desc: "Browse pizzas and additions"},
		item{title: "My Orders", desc: "Track placed orders"},
		item{title: "Exit", desc: "Exit the application"},
	}
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Primos Pizza"

	columns := []table.Column{
		{Title: "Item", Width: 24},
		{Title: "S", Width: 6},
		{Title: "M", Width: 6},
		{Title: "L", Width: 6},
		{Title: "REG", Width: 6},
	}
	menuTable := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	orderList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	orderList.Title = "Your Orders"

	ti := textinput.New()
	ti.Placeholder = "add 2 large margherita..."
	ti.CharLimit = 500
	ti.Width = 60

	return Model{
		mainMenu:    mainMenu,
		menuTable:   menuTable,
		orderList:   orderList,
		spinner:     s,
		textInput:   ti,
		client:      NewApiClient(userID),
		currentView: "main",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.mainMenu.SetSize(msg.Width-h, msg.Height-v)
		m.orderList.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentView != "chat" {
				return m, tea.Quit
			}
		case "esc":
			switch m.currentView {
			case "order_detail":
				m.currentView = "orders"
				return m, fetchOrders(m.client)
			case "main":
			default:
				m.textInput.Blur()
				m.currentView = "main"
			}
			return m, nil
		case "enter":
			switch m.currentView {
			case "main":
				if selected, ok := m.mainMenu.SelectedItem().(item); ok {
					switch selected.title {
					case "Exit":
						return m, tea.Quit
					case "Chat":
						m.currentView = "chat"
						m.textInput.Focus()
						return m, textinput.Blink
					case "Menu":
						m.currentView = "menu"
						return m, fetchMenu(m.client)
					case "My Orders":
						m.currentView = "orders"
						return m, fetchOrders(m.client)
					}
				}
			case "chat":
				text := strings.TrimSpace(m.textInput.Value())
				if text == "" || m.loading {
					return m, nil
				}
				m.textInput.SetValue("")
				m.appendLine(userStyle.Render("You: ") + text)
				m.loading = true
				return m, sendMessage(m.client, text)
			case "orders":
				if selected, ok := m.orderList.SelectedItem().(orderItem); ok {
					m.currentView = "order_detail"
					return m, fetchOrderDetails(m.client, selected.id)
				}
			}
		case "ctrl+l":
			if m.currentView == "chat" {
				m.transcript = nil
				return m, clearHistory(m.client)
			}
		}
	case chatMsg:
		m.loading = false
		m.error = ""
		m.appendLine(botStyle.Render("Primos: ") + msg.reply.BotResponse)
		m.footer = chatFooter(msg.reply)
		return m, nil
	case menuMsg:
		m.menuTable.SetRows(menuRows(msg.items))
		return m, nil
	case ordersMsg:
		m.orderList.SetItems(convertOrdersToItems(msg.orders))
		return m, nil
	case orderDetailMsg:
		m.orderDetail = msg.order
		return m, nil
	case errorMsg:
		m.loading = false
		m.error = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "menu":
		m.menuTable, cmd = m.menuTable.Update(msg)
	case "orders":
		m.orderList, cmd = m.orderList.Update(msg)
	case "chat":
		m.textInput, cmd = m.textInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	if len(m.transcript) > maxTranscript {
		m.transcript = m.transcript[len(m.transcript)-maxTranscript:]
	}
}

// View renders the UI
func (m Model) View() string {
	var errLine string
	if m.error != "" {
		errLine = "\n" + errorStyle.Render(m.error) + "\n"
	}

	switch m.currentView {
	case "main":
		return docStyle.Render(m.mainMenu.View())
	case "chat":
		var b strings.Builder
		b.WriteString(titleStyle.Render("Chat") + "\n\n")
		for _, line := range m.transcript {
			b.WriteString(line + "\n\n")
		}
		if m.loading {
			b.WriteString(m.spinner.View() + " thinking...\n\n")
		}
		b.WriteString(m.textInput.View() + "\n")
		if m.footer != "" {
			b.WriteString(infoStyle.Render(m.footer) + "\n")
		}
		b.WriteString(infoStyle.Render("enter: send • ctrl+l: clear history • esc: back"))
		return docStyle.Render(b.String() + errLine)
	case "menu":
		return docStyle.Render(titleStyle.Render("Menu (EGP)") + "\n\n" + m.menuTable.View() + errLine +
			"\n" + infoStyle.Render("esc: back"))
	case "orders":
		return docStyle.Render(m.orderList.View() + errLine)
	case "order_detail":
		return docStyle.Render(orderDetailView(m.orderDetail) + errLine)
	default:
		return "Loading..."
	}
}

// Custom message types for the tea.Model
type chatMsg struct {
	reply *ChatReply
}

type menuMsg struct {
	items []MenuItem
}

type ordersMsg struct {
	orders []Order
}

type orderDetailMsg struct {
	order Order
}

type errorMsg struct {
	err string
}

// orderItem represents an order in the list
type orderItem struct {
	id    uint
	title string
	desc  string
}

func (i orderItem) Title() string       { return i.title }
func (i orderItem) Description() string { return i.desc }
func (i orderItem) FilterValue() string { return i.title }

func sendMessage(client *ApiClient, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := client.Chat(text)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error sending message: %v", err)}
		}
		return chatMsg{reply: reply}
	}
}

func clearHistory(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		if err := client.ClearHistory(); err != nil {
			return errorMsg{err: fmt.Sprintf("Error clearing history: %v", err)}
		}
		return nil
	}
}

func fetchMenu(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		items, err := client.GetMenu()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching menu: %v", err)}
		}
		return menuMsg{items: items}
	}
}

func fetchOrders(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		orders, err := client.GetOrders()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching orders: %v", err)}
		}
		return ordersMsg{orders: orders}
	}
}

func fetchOrderDetails(client *ApiClient, id uint) tea.Cmd {
	return func() tea.Msg {
		order, err := client.GetOrder(id)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching order details: %v", err)}
		}
		return orderDetailMsg{order: *order}
	}
}

func chatFooter(r *ChatReply) string {
	parts := []string{fmt.Sprintf("intent: %s (%s)", r.Intent, r.NLPSource)}
	if r.CurrentCart != nil && r.CurrentCart.ItemCount > 0 {
		parts = append(parts, fmt.Sprintf("cart: %d items, %.2f EGP", r.CurrentCart.ItemCount, r.CurrentCart.TotalPrice))
	}
	if len(r.SuggestedActions) > 0 {
		parts = append(parts, "try: "+strings.Join(r.SuggestedActions, " / "))
	}
	return strings.Join(parts, " • ")
}

func menuRows(items []MenuItem) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		prices := map[string]string{}
		for _, s := range it.Sizes {
			if s.IsAvailable {
				prices[s.Size] = fmt.Sprintf("%g", s.Price)
			} else {
				prices[s.Size] = "-"
			}
		}
		name := it.Name
		if !it.IsAvailable {
			name += " (out)"
		}
		rows = append(rows, table.Row{name, prices["S"], prices["M"], prices["L"], prices["REG"]})
	}
	return rows
}

func convertOrdersToItems(orders []Order) []list.Item {
	items := make([]list.Item, len(orders))
	for i, order := range orders {
		items[i] = orderItem{
			id:    order.ID,
			title: fmt.Sprintf("Order #%d", order.ID),
			desc:  fmt.Sprintf("%d items - %.2f EGP - Status: %s", len(order.Items), order.TotalPrice, order.Status),
		}
	}
	return items
}

func orderDetailView(order Order) string {
	view := titleStyle.Render(fmt.Sprintf("Order #%d Details", order.ID)) + "\n\n"
	view += fmt.Sprintf("Status: %s\n", order.Status)
	if !order.CreatedAt.IsZero() {
		view += fmt.Sprintf("Placed: %s\n", order.CreatedAt.Format(time.RFC1123))
	}

	view += "\nItems:\n"
	for i, it := range order.Items {
		view += fmt.Sprintf("%d. %dx %s %s - %.2f EGP\n", i+1, it.Quantity, it.Size, it.MenuItemName, it.Price*float64(it.Quantity))
	}
	view += fmt.Sprintf("\nTotal: %.2f EGP\n", order.TotalPrice)
	view += "\nPress 'esc' to go back to the list"
	return view
}

func main() {
	userID := flag.Uint("user", 1, "User id to chat as")
	flag.Parse()

	p := tea.NewProgram(initialModel(*userID))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
