package cli

import (
	"github.com/spf13/cobra"
)

var documentName string

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage documents within a library",
}

var documentAddCmd = &cobra.Command{
	Use:   "add [library-id]",
	Short: "Create a new, initially empty document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentAdd,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete a document and all its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentAddCmd.Flags().StringVar(&documentName, "name", "", "human-readable document name")

	documentCmd.AddCommand(documentAddCmd, documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	doc, err := libraryService.CreateDocument(args[0], documentName, nil)
	if err != nil {
		return err
	}
	cmd.Printf("created document %s\n", doc.ID)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if err := libraryService.DeleteDocument(args[0]); err != nil {
		return err
	}
	cmd.Printf("deleted document %s\n", args[0])
	return nil
}
