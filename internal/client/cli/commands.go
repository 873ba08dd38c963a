package cli

import "context"

func noArgs(fn func(context.Context) error) func(context.Context, []string) error {
	return func(ctx context.Context, _ []string) error { return fn(ctx) }
}

// commands is the REPL command table.
func (a *App) commands() []command {
	return []command{
		{name: "register", usage: "register", help: "create an account", run: noArgs(a.Register)},
		{name: "login", usage: "login", help: "sign in", run: noArgs(a.Login)},

		{name: "whoami", usage: "whoami", help: "show the signed-in user", auth: true, run: noArgs(a.Whoami)},
		{name: "logout", usage: "logout", help: "sign out", auth: true, run: noArgs(a.Logout)},

		{name: "list", aliases: []string{"ls"}, usage: "list [mine|shared|archived]", help: "show a dashboard tab", auth: true, run: a.List},
		{name: "tab", usage: "tab [mine|shared|archived]", help: "switch the active tab", auth: true, run: a.SetTab},
		{name: "page", usage: "page <n> [tab]", help: "go to a page", auth: true, minArgs: 1, run: a.Page},
		{name: "sort", usage: "sort <field> [asc|desc]", help: "sort the active tab", auth: true, minArgs: 1, run: a.Sort},
		{name: "filter", usage: "filter [text]", help: "filter the dashboard by title", auth: true, run: a.Filter},
		{name: "search", usage: "search <query>", help: "search notes on the server", auth: true, minArgs: 1, run: a.Search},
		{name: "archive", usage: "archive <id>", help: "archive a note", auth: true, minArgs: 1, run: a.Archive},
		{name: "unarchive", usage: "unarchive <id>", help: "restore an archived note", auth: true, minArgs: 1, run: a.Unarchive},
		{name: "delete", aliases: []string{"rm"}, usage: "delete <id>", help: "delete a note", auth: true, minArgs: 1, run: a.Delete},

		{name: "open", usage: "open <id|#n>", help: "open a note in the editor", auth: true, minArgs: 1, run: a.OpenNote},
		{name: "new", usage: "new", help: "start a new note", auth: true, run: a.NewNote},
		{name: "show", usage: "show", help: "print the open note", auth: true, run: a.Show},
		{name: "title", usage: "title <text>", help: "rename the open note", auth: true, minArgs: 1, run: a.SetTitle},
		{name: "write", usage: "write", help: "replace the body of the open note", auth: true, run: a.Write},
		{name: "save", usage: "save", help: "save now", auth: true, run: a.Save},
		{name: "close", usage: "close", help: "close the open note", auth: true, run: a.CloseNote},
		{name: "export", usage: "export <md|pdf|doc> [file]", help: "export the open note", auth: true, minArgs: 1, run: a.Export},
		{name: "share", usage: "share <email> <read|write>", help: "share the open note", auth: true, minArgs: 2, run: a.Share},
		{name: "role", usage: "role <userId> <read|write>", help: "change a collaborator's role", auth: true, minArgs: 2, run: a.UpdateRole},
		{name: "unshare", usage: "unshare <userId>", help: "remove a collaborator", auth: true, minArgs: 1, run: a.Unshare},
		{name: "users", usage: "users <email>", help: "find users to share with", auth: true, minArgs: 1, run: a.FindUsers},

		{name: "notifications", aliases: []string{"n"}, usage: "notifications", help: "show notifications", auth: true, run: a.Notifications},
		{name: "read", usage: "read <id>", help: "mark a notification read", auth: true, minArgs: 1, run: a.MarkRead},
		{name: "readall", usage: "readall", help: "mark all notifications read", auth: true, run: a.MarkAllRead},
		{name: "dismiss", usage: "dismiss <id>", help: "remove a notification", auth: true, minArgs: 1, run: a.Dismiss},
	}
}
