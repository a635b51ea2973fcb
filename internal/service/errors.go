package service

import (
	"errors"

	"gorm.io/gorm"
)

// Error kinds. Handlers map them to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a failure with a message meant for the user.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

var (
	ErrInvalidCredentials = newError(ErrUnauthorized, "Email ou mot de passe incorrect")
	ErrInvalidToken       = newError(ErrUnauthorized, "Jeton invalide ou expiré")
	ErrAccountPending     = newError(ErrForbidden, "Votre compte est en attente de validation")
	ErrAccountRejected    = newError(ErrForbidden, "Votre inscription a été refusée")
	ErrAccountSuspended   = newError(ErrForbidden, "Votre compte est suspendu")
	ErrEmailTaken         = newError(ErrConflict, "Un compte existe déjà avec cet email")
	ErrUserNotFound       = newError(ErrNotFound, "Utilisateur introuvable")

	ErrZoneNotFound    = newError(ErrNotFound, "Zone introuvable")
	ErrZoneInUse       = newError(ErrConflict, "Des commandes en cours utilisent cette zone")
	ErrZoneRequested   = newError(ErrConflict, "Une demande existe déjà pour cette zone")
	ErrRequestNotFound = newError(ErrNotFound, "Demande introuvable")
	ErrAlreadyReviewed = newError(ErrConflict, "Cette demande a déjà été traitée")

	ErrProductNotFound  = newError(ErrNotFound, "Produit introuvable")
	ErrProductInactive  = newError(ErrInvalid, "Ce produit n'est plus disponible")
	ErrOrgNotFound      = newError(ErrNotFound, "Établissement introuvable")
	ErrCartEmpty        = newError(ErrInvalid, "Le panier est vide")
	ErrOrderNotFound    = newError(ErrNotFound, "Commande introuvable")
	ErrOfferNotFound    = newError(ErrNotFound, "Offre introuvable")
	ErrOfferExists      = newError(ErrConflict, "Vous avez déjà soumis une offre pour cette commande")
	ErrZoneNotApproved  = newError(ErrForbidden, "Vous n'êtes pas habilité à livrer dans cette zone")
	ErrNotOrderParty    = newError(ErrForbidden, "Cette commande ne vous concerne pas")
	ErrAlreadyRated     = newError(ErrConflict, "Cette commande a déjà été évaluée")
	ErrTransition       = newError(ErrConflict, "Cette action n'est pas possible au statut actuel de la commande")
	ErrRoleNotAllowed   = newError(ErrForbidden, "Action non autorisée pour votre rôle")
	ErrConfirmRequired  = newError(ErrInvalid, "Confirmation requise pour cette action irréversible")
	ErrClosingCashNeeds = newError(ErrInvalid, "Le montant de caisse compté est requis")

	ErrSheetNotFound      = newError(ErrNotFound, "Fiche journalière introuvable")
	ErrSheetExists        = newError(ErrConflict, "Une fiche existe déjà pour cette date")
	ErrSheetClosed        = newError(ErrConflict, "La fiche journalière est clôturée")
	ErrSheetNotClosed     = newError(ErrConflict, "La fiche doit être clôturée pour générer le rapport")
	ErrSheetBusy          = newError(ErrConflict, "Clôture déjà en cours sur cette fiche")
	ErrLineNotFound       = newError(ErrNotFound, "Ligne introuvable")
	ErrInitialStockLocked = newError(ErrInvalid, "Le stock initial est repris de la veille et ne peut pas être modifié")
	ErrExpenseCategory    = newError(ErrInvalid, "Catégorie de dépense inconnue")

	ErrAnnualLoad = newError(errors.New("annual load"), "Impossible de charger les données annuelles")
)

// IncompleteSheetError lists the counts missing before a closure.
type IncompleteSheetError struct {
	Missing []string
}

func (e *IncompleteSheetError) Error() string {
	return "Clôture impossible: saisies manquantes"
}

func (e *IncompleteSheetError) Unwrap() error { return ErrInvalid }

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// isDuplicate reports a unique index violation (TranslateError is on).
func isDuplicate(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }
