package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"budgeteer/internal/core"
)

type Config struct {
	// Input directories
	TransactionsDir string
	BudgetsDir      string
	BalancesDir     string

	// Output
	ReportsDir string

	// Engine
	DefaultAccount               string
	IncomeCategories             []string
	BudgetExcludedCategories     []string
	CashbackIneligibleCategories []string
	ExcludeTransfersFromAccounts bool

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Backend selection
	DataBackend string
	Exporter    string
}

func Load() *Config {
	cfg := &Config{
		TransactionsDir: getEnv("TRANSACTIONS_DIR", "./data/transactions"),
		BudgetsDir:      getEnv("BUDGETS_DIR", "./data/budgets"),
		BalancesDir:     getEnv("BALANCES_DIR", "./data/balances"),
		ReportsDir:      getEnv("REPORTS_DIR", "./reports"),

		DefaultAccount:               getEnv("DEFAULT_ACCOUNT", core.DefaultAccount),
		IncomeCategories:             getEnvList("INCOME_CATEGORIES", core.DefaultIncomeCategories()),
		BudgetExcludedCategories:     getEnvList("BUDGET_EXCLUDED_CATEGORIES", []string{core.CategoryTransfer}),
		CashbackIneligibleCategories: getEnvList("CASHBACK_INELIGIBLE_CATEGORIES", core.DefaultCashbackIneligible()),
		ExcludeTransfersFromAccounts: getEnvBool("EXCLUDE_TRANSFERS_FROM_ACCOUNTS", true),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgeteer.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgeteer"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_requests"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		DataBackend: getEnv("DATA_BACKEND", "none"),
		Exporter:    getEnv("EXPORTER", "csv"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.TransactionsDir == "" {
		errors = append(errors, "transactions directory cannot be empty")
	}
	if c.BudgetsDir == "" {
		errors = append(errors, "budgets directory cannot be empty")
	}
	if c.BalancesDir == "" {
		errors = append(errors, "balances directory cannot be empty")
	}

	if c.DefaultAccount == "" {
		errors = append(errors, "default account cannot be empty")
	}

	errors = append(errors, validateCategoryList("income category", c.IncomeCategories)...)
	errors = append(errors, validateCategoryList("budget-excluded category", c.BudgetExcludedCategories)...)
	errors = append(errors, validateCategoryList("cashback-ineligible category", c.CashbackIneligibleCategories)...)

	// Transfers and investments move money between accounts; counting them
	// as income would double book every transfer into the default account.
	for _, name := range c.IncomeCategories {
		if name == core.CategoryTransfer || name == core.CategoryInvesting {
			errors = append(errors, fmt.Sprintf("category '%s' cannot be an income category", name))
		}
	}

	validBackends := []string{"none", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	validExporters := []string{"csv", "sheets", "none"}
	isValidExporter := false
	for _, exporter := range validExporters {
		if c.Exporter == exporter {
			isValidExporter = true
			break
		}
	}
	if !isValidExporter {
		errors = append(errors, fmt.Sprintf("invalid exporter '%s': must be one of %v", c.Exporter, validExporters))
	}

	if c.Exporter == "csv" && c.ReportsDir == "" {
		errors = append(errors, "reports directory cannot be empty when using csv exporter")
	}

	if c.Exporter == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets exporter")
		}
		hasCredFile := c.GoogleCredentialsFile != ""
		hasCredJSON := c.GoogleCredentialsJSON != ""
		if !hasCredFile && !hasCredJSON {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets exporter")
		}
		if hasCredFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func validateCategoryList(label string, names []string) []string {
	var errors []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be blank", label))
			continue
		}
		if seen[name] {
			errors = append(errors, fmt.Sprintf("duplicate %s '%s'", label, name))
		}
		seen[name] = true
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			out = append(out, strings.TrimSpace(part))
		}
		return out
	}
	return defaultValue
}
