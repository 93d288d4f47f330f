package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. Categories with a nil UserID
// are defaults shared by every user; user-owned categories have UserID set.
// The voice pipeline only reads this set.
type Category struct {
	Base
	UserID    *string      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name      string       `gorm:"not null" json:"name"`
	Type      CategoryType `gorm:"not null" json:"type"`
	Icon      string       `json:"icon"`
	IsDefault bool         `gorm:"default:false" json:"is_default"`

	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}

// DefaultCategorySeed describes one default category created at migration time.
type DefaultCategorySeed struct {
	Name string
	Icon string
	Type CategoryType
}

// DefaultCategories is the shared category set every account starts with.
// The extraction prompt suggests labels from this list, so reconciliation
// usually resolves against it directly.
var DefaultCategories = []DefaultCategorySeed{
	{Name: "Food & Dining", Icon: "🍽️", Type: CategoryTypeExpense},
	{Name: "Groceries", Icon: "🛒", Type: CategoryTypeExpense},
	{Name: "Transport", Icon: "🚗", Type: CategoryTypeExpense},
	{Name: "Entertainment", Icon: "🎬", Type: CategoryTypeExpense},
	{Name: "Shopping", Icon: "🛍️", Type: CategoryTypeExpense},
	{Name: "Bills & Utilities", Icon: "💡", Type: CategoryTypeExpense},
	{Name: "Health", Icon: "💊", Type: CategoryTypeExpense},
	{Name: "Other", Icon: "📦", Type: CategoryTypeExpense},
	{Name: "Salary", Icon: "💰", Type: CategoryTypeIncome},
	{Name: "Freelance", Icon: "💻", Type: CategoryTypeIncome},
	{Name: "Investments", Icon: "📈", Type: CategoryTypeIncome},
	{Name: "Gifts", Icon: "🎁", Type: CategoryTypeIncome},
	{Name: "Refunds", Icon: "↩️", Type: CategoryTypeIncome},
	{Name: "Other Income", Icon: "💵", Type: CategoryTypeIncome},
}
