package services

// User-facing messages, in the language the staff works in.
const (
	msgInvalidTaxID      = "CPF inválido."
	msgDuplicateTaxID    = "CPF já cadastrado."
	msgInvalidEmail      = "E-mail inválido."
	msgDuplicateEmail    = "E-mail já cadastrado."
	msgRequiredName      = "Nome é obrigatório."
	msgInvalidPhone      = "Telefone deve ter DDD e 9 dígitos."
	msgInvalidPostalCode = "CEP deve ter 8 dígitos."
	msgInvalidForm       = "Dados do cliente inválidos."
	msgNotFound          = "Cliente não encontrado."
	msgCreateFailed      = "Erro ao cadastrar cliente."
	msgUpdateFailed      = "Erro ao atualizar cliente."
	msgUnknownCredential = "Erro desconhecido ao cadastrar cliente."
	msgCreated           = "Cliente cadastrado com sucesso!"
	msgUpdated           = "Cliente atualizado com sucesso!"
)

var credentialMessages = map[string]string{
	CodeWeakPassword:        "A senha é muito fraca.",
	CodeEmailAlreadyInUse:   "O e-mail já está em uso.",
	CodeInvalidEmail:        "O e-mail fornecido é inválido.",
	CodeOperationNotAllowed: "Operação não permitida.",
	CodeUserNotFound:        "Usuário não encontrado.",
	CodeWrongPassword:       "Senha incorreta.",
}

// CredentialMessage maps a credential error code to its localized message.
// Unknown codes get the generic message.
func CredentialMessage(code string) string {
	if msg, ok := credentialMessages[code]; ok {
		return msg
	}
	return msgUnknownCredential
}
