package dispatcher

const WelcomeText = `
  +---------------------------------------------+
  |       +-----------------------------+       |
  |       |  Welcome to BankCorp, Inc!  |       |
  |       +-----------------------------+       |
  |                                             |
  |        /$$$$$$  /$$$$$$$$ /$$      /$$      |
  |       /$$__  $$|__  $$__/| $$$    /$$$      |
  |      | $$  \ $$   | $$   | $$$$  /$$$$      |
  |      | $$$$$$$$   | $$   | $$ $$/$$ $$      |
  |      | $$__  $$   | $$   | $$  $$$| $$      |
  |      | $$  | $$   | $$   | $$\  $ | $$      |
  |      | $$  | $$   | $$   | $$ \/  | $$      |
  |      |__/  |__/   |__/   |__/     |__/      |
  |                                             |
  +---------------------------------------------+
`

const HelpText = `
Usage:

authorize <account_id> <pin>       Authorizes the current session.
withdraw <number_of_dollars>       The amount in dollars to withdraw, must be
                                   a multiple of $20.
deposit <number_of_dollars>        The amount in dollars to deposit.
balance                            Returns your current balance.
history                            Displays a list of your transactions.
logout                             Deactivates the currently authorized session.
end                                Shuts down the server.
`

const (
	msgAuthorized       = "%s successfully authorized."
	msgAuthFailed       = "Authorization failed."
	msgAuthRequired     = "Authorization required."
	msgInvalidAmount    = "Invalid amount."
	msgCashPoolEmpty    = "Unable to process your withdrawal at this time."
	msgAlreadyOverdrawn = "Your account is overdrawn! You may not make withdrawals at this time."
	msgPartialDispense  = "Unable to dispense full amount requested at this time. "
	msgDispensed        = "Amount dispensed: $%s"
	msgOverdraftFee     = "You have been charged an overdraft fee of $%s. "
	msgBalance          = "Current balance: $%s"
	msgNoHistory        = "No history found"
	msgLoggedOut        = "Account %s logged out."
	msgNoSession        = "No account is currently authorized."
	msgCommandNotFound  = `Command "%s" not found. Type "help" for help.`

	historyTimeLayout = "2006-01-02 15:04:05"
)
