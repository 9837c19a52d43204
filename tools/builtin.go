package tools

// RegisterBuiltins adds every built-in tool except Task to r.
func RegisterBuiltins(r *Registry, todos *TodoList) error {
	for _, t := range []*Tool{
		NewBashTool(),
		NewReadFileTool(),
		NewWriteFileTool(),
		NewUpdateFileTool(),
		NewGrepTool(),
		NewGlobTool(),
		NewLSTool(),
		NewFetchTool(),
		NewWeatherTool(),
		NewTodoTool(todos),
	} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
