package domain

// DefaultCategories are seeded on first boot when the categories table is
// empty. Names are stable; rules and budgets reference them by id.
var DefaultCategories = []Category{
	{Name: "Food & Dining", Color: "#FF5733", Icon: "restaurant"},
	{Name: "Transport", Color: "#3498DB", Icon: "car"},
	{Name: "Shopping", Color: "#9B59B6", Icon: "shopping"},
	{Name: "Entertainment", Color: "#E74C3C", Icon: "movie"},
	{Name: "Bills & Utilities", Color: "#F39C12", Icon: "bill"},
	{Name: "Healthcare", Color: "#1ABC9C", Icon: "health"},
	{Name: "Education", Color: "#34495E", Icon: "education"},
	{Name: "Travel", Color: "#16A085", Icon: "travel"},
	{Name: "Income", Color: "#27AE60", Icon: "income"},
	{Name: "Other", Color: "#95A5A6", Icon: "other"},
}
