package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"creditmeter/cmd"
	"creditmeter/database"
	"creditmeter/models"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: creditmeter [migrate|grant|stats|check] ...")
	}

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "migrate":
		err = handleMigrationCommand()
	case "grant":
		err = handleGrantCommand(ctx)
	case "stats":
		err = handleStatsCommand(ctx)
	case "check":
		err = handleCheckCommand(ctx)
	default:
		err = fmt.Errorf("unknown command: %s", os.Args[1])
	}

	if err != nil {
		log.Fatal("Error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: creditmeter migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleGrantCommand(ctx context.Context) error {
	if len(os.Args) < 5 {
		return fmt.Errorf("usage: creditmeter grant <ownerID> <module> <credits>")
	}

	ownerID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid owner ID: %w", err)
	}
	credits, err := strconv.ParseInt(os.Args[4], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid credits: %w", err)
	}

	return cmd.Grant(ctx, ownerID, models.Module(os.Args[3]), credits)
}

func handleStatsCommand(ctx context.Context) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: creditmeter stats <accountID> [role] [parentID]")
	}

	account, err := parseAccount(os.Args[2:])
	if err != nil {
		return err
	}

	return cmd.PrintStats(ctx, account)
}

func handleCheckCommand(ctx context.Context) error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: creditmeter check <accountID> <module> [amount] [role] [parentID]")
	}

	account, module, amount, err := parseCheckArgs(os.Args[2:])
	if err != nil {
		return err
	}

	return cmd.Check(ctx, account, module, amount)
}

// parseCheckArgs parses check arguments: <accountID> <module> [amount] [role] [parentID]
func parseCheckArgs(args []string) (*models.Account, models.Module, int64, error) {
	accountArgs := []string{args[0]}
	if len(args) > 3 {
		accountArgs = append(accountArgs, args[3])
	}
	if len(args) > 4 {
		accountArgs = append(accountArgs, args[4])
	}

	account, err := parseAccount(accountArgs)
	if err != nil {
		return nil, "", 0, err
	}

	amount := int64(1)
	if len(args) > 2 {
		amount, err = strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid amount: %w", err)
		}
	}

	return account, models.Module(args[1]), amount, nil
}

// parseAccount builds an account from CLI arguments: <accountID> [role] [parentID]
func parseAccount(args []string) (*models.Account, error) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid account ID: %w", err)
	}

	account := &models.Account{ID: id, Role: models.RoleDelegating}
	if len(args) > 1 {
		account.Role = models.Role(args[1])
	}
	if len(args) > 2 {
		parentID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid parent ID: %w", err)
		}
		account.ParentID = &parentID
	}

	return account, nil
}
